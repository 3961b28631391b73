package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"studynotes/cmd/internal/contract"
	"studynotes/cmd/internal/domain/entity"
	"studynotes/cmd/internal/domain/policy"
	"studynotes/cmd/internal/domain/sqlite"
	"studynotes/cmd/internal/utils/validators"
)

var (
	alice = &entity.User{UID: "u-alice", Email: "alice@x.com", Name: "Alice"}
	bob   = &entity.User{UID: "u-bob", Email: "bob@x.com", Name: "Bob"}
	carol = &entity.User{UID: "u-carol", Email: "carol@x.com", Name: "Carol"}
)

// fakeS3 records uploads and deletions in memory.
type fakeS3 struct {
	uploads map[string][]byte
	deleted []string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{uploads: map[string][]byte{}}
}

func (f *fakeS3) UploadFile(data []byte, filename string) (string, error) {
	key := "media/" + filename
	f.uploads[key] = data
	return key, nil
}

func (f *fakeS3) DeleteFile(key string) error {
	f.deleted = append(f.deleted, key)
	delete(f.uploads, key)
	return nil
}

type testEnv struct {
	store    *sqlite.DocumentStore
	access   *AccessResolver
	subjects *SubjectService
	notes    *NoteService
	shares   *ShareService
	tags     *TagService
	s3       *fakeS3
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.Init(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	store := sqlite.NewStore(db)

	validate := validator.New()
	require.NoError(t, validate.RegisterValidation("hasupper", validators.HasUpper))
	require.NoError(t, validate.RegisterValidation("haslower", validators.HasLower))
	require.NoError(t, validate.RegisterValidation("hasdigit", validators.HasDigit))
	require.NoError(t, validate.RegisterValidation("hasspecial", validators.HasSpecial))
	require.NoError(t, validate.RegisterValidation("nodupes", validators.NoDupes))
	require.NoError(t, validate.RegisterValidation("nospaces", validators.NoWhiteSpaces))

	access := NewAccessResolver(store)
	itemPolicy := policy.NewItemPolicy()
	s3 := newFakeS3()

	return &testEnv{
		store:    store,
		access:   access,
		subjects: NewSubjectService(store, access, itemPolicy, validate),
		notes:    NewNoteService(store, access, itemPolicy, s3, validate),
		shares:   NewShareService(store, access, itemPolicy, validate),
		tags:     NewTagService(store, access, itemPolicy),
		s3:       s3,
	}
}

func (e *testEnv) mustCreateSubject(t *testing.T, owner *entity.User, title string) *contract.SubjectResponse {
	t.Helper()

	subject, apierr := e.subjects.CreateSubject(context.Background(), owner, &contract.SubjectRequest{
		Title:       title,
		Description: "desc",
	})
	require.Nil(t, apierr)
	return subject
}

func (e *testEnv) mustCreateNote(t *testing.T, owner *entity.User, subjectID, title string, tags ...string) *contract.NoteResponse {
	t.Helper()

	note, apierr := e.notes.CreateNote(context.Background(), owner, &contract.NoteRequest{
		Title:     title,
		Content:   "content",
		SubjectID: subjectID,
		Tags:      tags,
	})
	require.Nil(t, apierr)
	return note
}

func (e *testEnv) mustShare(t *testing.T, owner *entity.User, req *contract.ShareRequest) *contract.ShareResponse {
	t.Helper()

	share, apierr := e.shares.ShareItem(context.Background(), owner, req)
	require.Nil(t, apierr)
	return share
}
