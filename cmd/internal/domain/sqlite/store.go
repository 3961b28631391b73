package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"studynotes/cmd/internal/domain/docstore"
)

// documentRow is the single table backing every collection. Payloads are
// stored as JSON and filtered in memory, the way a schemaless document
// database would serve them.
type documentRow struct {
	Collection string `gorm:"primaryKey;size:64"`
	DocID      string `gorm:"primaryKey;size:64"`
	Data       []byte `gorm:"not null"`
	UpdatedAt  int64  `gorm:"not null;autoUpdateTime:false"`
}

type DocumentStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

func (s *DocumentStore) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	return getDoc(s.db.WithContext(ctx), collection, id)
}

func (s *DocumentStore) Create(ctx context.Context, collection string, fields map[string]any) (*docstore.Document, error) {
	id := docstore.NewID()
	now := nowMillis()

	err := writeDoc(s.db.WithContext(ctx), collection, id, nil, fields, now)
	if err != nil {
		return nil, err
	}
	return getDoc(s.db.WithContext(ctx), collection, id)
}

func (s *DocumentStore) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	return writeDoc(s.db.WithContext(ctx), collection, id, nil, fields, nowMillis())
}

func (s *DocumentStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return updateDoc(s.db.WithContext(ctx), collection, id, fields, nowMillis())
}

func (s *DocumentStore) Delete(ctx context.Context, collection, id string) error {
	return s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		Delete(&documentRow{}).Error
}

func (s *DocumentStore) Query(ctx context.Context, collection string, q docstore.Query) ([]*docstore.Document, error) {
	var rows []documentRow
	err := s.db.WithContext(ctx).Where("collection = ?", collection).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	docs := make([]*docstore.Document, 0, len(rows))
	for i := range rows {
		doc, derr := decodeRow(&rows[i])
		if derr != nil {
			return nil, derr
		}
		docs = append(docs, doc)
	}
	return q.Apply(docs), nil
}

func (s *DocumentStore) Batch() docstore.Batch {
	return &batch{db: s.db}
}

const (
	opSet = iota
	opUpdate
	opDelete
)

type batchOp struct {
	kind       int
	collection string
	id         string
	fields     map[string]any
}

type batch struct {
	db  *gorm.DB
	ops []batchOp
}

func (b *batch) Set(collection, id string, fields map[string]any) {
	b.ops = append(b.ops, batchOp{kind: opSet, collection: collection, id: id, fields: fields})
}

func (b *batch) Update(collection, id string, fields map[string]any) {
	b.ops = append(b.ops, batchOp{kind: opUpdate, collection: collection, id: id, fields: fields})
}

func (b *batch) Delete(collection, id string) {
	b.ops = append(b.ops, batchOp{kind: opDelete, collection: collection, id: id})
}

// Commit applies every staged write in one transaction. All writes resolve
// ServerTimestamp to the same instant.
func (b *batch) Commit(ctx context.Context) error {
	now := nowMillis()

	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, op := range b.ops {
			var err error
			switch op.kind {
			case opSet:
				err = writeDoc(tx, op.collection, op.id, nil, op.fields, now)
			case opUpdate:
				err = updateDoc(tx, op.collection, op.id, op.fields, now)
			case opDelete:
				err = tx.Where("collection = ? AND doc_id = ?", op.collection, op.id).
					Delete(&documentRow{}).Error
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func getDoc(db *gorm.DB, collection, id string) (*docstore.Document, error) {
	var row documentRow
	err := db.Where("collection = ? AND doc_id = ?", collection, id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return decodeRow(&row)
}

func updateDoc(db *gorm.DB, collection, id string, fields map[string]any, now int64) error {
	current, err := getDoc(db, collection, id)
	if err != nil {
		return err
	}

	if current == nil {
		return docstore.ErrNotFound
	}
	return writeDoc(db, collection, id, current.Data, fields, now)
}

func writeDoc(db *gorm.DB, collection, id string, current, fields map[string]any, now int64) error {
	merged := make(map[string]any, len(current)+len(fields))
	for k, v := range current {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = docstore.ResolveValue(current[k], v, now)
	}

	data, err := json.Marshal(merged)
	if err != nil {
		return err
	}

	row := documentRow{
		Collection: collection,
		DocID:      id,
		Data:       data,
		UpdatedAt:  now,
	}
	return db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

func decodeRow(row *documentRow) (*docstore.Document, error) {
	data := map[string]any{}
	if err := json.Unmarshal(row.Data, &data); err != nil {
		return nil, err
	}
	return &docstore.Document{ID: row.DocID, Data: data}, nil
}

func nowMillis() int64 {
	return time.Now().UTC().UnixMilli()
}
