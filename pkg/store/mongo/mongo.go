// Package mongo implements store.Store on MongoDB.
//
// People and relationships live in two collections keyed by UUID strings.
// Creation order is kept with a per-document nanosecond sequence.
package mongo

import (
	"context"
	stderrors "errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/store"
)

// Collection names.
const (
	CollectionPeople        = "people"
	CollectionRelationships = "relationships"
)

type personDoc struct {
	ID              string           `bson:"_id"`
	TreeID          string           `bson:"tree_id"`
	Seq             int64            `bson:"seq"`
	FirstName       string           `bson:"first_name"`
	Surname         string           `bson:"surname"`
	BirthDate       *time.Time       `bson:"birth_date,omitempty"`
	AnniversaryDate *time.Time       `bson:"anniversary_date,omitempty"`
	Alive           bool             `bson:"alive"`
	Gender          string           `bson:"gender"`
	Notes           string           `bson:"notes,omitempty"`
	Tags            []string         `bson:"tags,omitempty"`
	PhotoURL        string           `bson:"photo_url,omitempty"`
	Position        *family.Position `bson:"position,omitempty"`
}

type relationshipDoc struct {
	ID      string `bson:"_id"`
	TreeID  string `bson:"tree_id"`
	Seq     int64  `bson:"seq"`
	PersonA string `bson:"person_a"`
	PersonB string `bson:"person_b"`
	Kind    string `bson:"kind"`
}

// Store implements store.Store using MongoDB.
type Store struct {
	client *mongo.Client
	people *mongo.Collection
	rels   *mongo.Collection
	seq    func() int64
}

// Open connects to uri and uses the named database.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	s := New(client, database)
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// New wraps a connected client.
func New(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		client: client,
		people: db.Collection(CollectionPeople),
		rels:   db.Collection(CollectionRelationships),
		seq:    func() int64 { return time.Now().UnixNano() },
	}
}

// EnsureIndexes creates the lookup indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.people.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "tree_id", Value: 1}, {Key: "seq", Value: 1}},
	}); err != nil {
		return fmt.Errorf("create people index: %w", err)
	}
	_, err := s.rels.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "tree_id", Value: 1}, {Key: "seq", Value: 1}}},
		{Keys: bson.D{{Key: "person_a", Value: 1}}},
		{Keys: bson.D{{Key: "person_b", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create relationship indexes: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

func (s *Store) Trees(ctx context.Context) ([]string, error) {
	raw, err := s.people.Distinct(ctx, "tree_id", bson.M{})
	if err != nil {
		return nil, errors.Persistence(err, "list trees")
	}
	ids := stringValues(raw)
	slices.Sort(ids)
	return ids, nil
}

var bySeq = options.Find().SetSort(bson.D{{Key: "seq", Value: 1}, {Key: "_id", Value: 1}})

func (s *Store) FetchPeople(ctx context.Context, treeID string) ([]family.Person, error) {
	cur, err := s.people.Find(ctx, bson.M{"tree_id": treeID}, bySeq)
	if err != nil {
		return nil, errors.Persistence(err, "fetch people of tree %s", treeID)
	}
	var docs []personDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Persistence(err, "decode people")
	}
	out := make([]family.Person, len(docs))
	for i, d := range docs {
		out[i] = d.person()
	}
	return out, nil
}

func (s *Store) FetchRelationships(ctx context.Context, treeID string) ([]family.Relationship, error) {
	cur, err := s.rels.Find(ctx, bson.M{"tree_id": treeID}, bySeq)
	if err != nil {
		return nil, errors.Persistence(err, "fetch relationships of tree %s", treeID)
	}
	var docs []relationshipDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Persistence(err, "decode relationships")
	}
	out := make([]family.Relationship, len(docs))
	for i, d := range docs {
		out[i] = family.Relationship{ID: d.ID, PersonA: d.PersonA, PersonB: d.PersonB, Kind: family.Kind(d.Kind)}
	}
	return out, nil
}

func (s *Store) CreatePerson(ctx context.Context, treeID string, f family.Fields) (family.Person, error) {
	p := family.NewPerson(uuid.New().String(), f)
	if _, err := s.people.InsertOne(ctx, toPersonDoc(treeID, s.seq(), p)); err != nil {
		return family.Person{}, errors.Persistence(err, "create person")
	}
	return p, nil
}

func (s *Store) UpdatePerson(ctx context.Context, id string, f family.Fields) (family.Person, error) {
	var d personDoc
	err := s.people.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return family.Person{}, fmt.Errorf("update person %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return family.Person{}, errors.Persistence(err, "load person %s", id)
	}
	p := d.person()
	f.Apply(&p)
	if _, err := s.people.ReplaceOne(ctx, bson.M{"_id": id}, toPersonDoc(d.TreeID, d.Seq, p)); err != nil {
		return family.Person{}, errors.Persistence(err, "update person %s", id)
	}
	return p, nil
}

// DeletePerson removes the person's relationships first, so a failure
// between the two writes never leaves dangling relationships.
func (s *Store) DeletePerson(ctx context.Context, id string) error {
	filter := bson.M{"$or": bson.A{bson.M{"person_a": id}, bson.M{"person_b": id}}}
	if _, err := s.rels.DeleteMany(ctx, filter); err != nil {
		return errors.Persistence(err, "delete relationships of %s", id)
	}
	res, err := s.people.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Persistence(err, "delete person %s", id)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete person %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// CreateRelationships checks that every endpoint exists, then inserts the
// batch with one ordered InsertMany.
func (s *Store) CreateRelationships(ctx context.Context, treeID string, rels []family.Relationship) ([]family.Relationship, error) {
	if len(rels) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(rels)*2)
	for _, r := range rels {
		ids = append(ids, r.PersonA, r.PersonB)
	}
	found, err := s.people.Distinct(ctx, "_id", bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, errors.Persistence(err, "check relationship endpoints")
	}
	known := make(map[string]bool, len(found))
	for _, id := range stringValues(found) {
		known[id] = true
	}

	docs := make([]any, len(rels))
	out := make([]family.Relationship, len(rels))
	base := s.seq()
	for i, r := range rels {
		for _, pid := range []string{r.PersonA, r.PersonB} {
			if !known[pid] {
				return nil, fmt.Errorf("create %s relationship: person %s: %w", r.Kind, pid, store.ErrNotFound)
			}
		}
		r.ID = uuid.New().String()
		docs[i] = relationshipDoc{ID: r.ID, TreeID: treeID, Seq: base + int64(i), PersonA: r.PersonA, PersonB: r.PersonB, Kind: string(r.Kind)}
		out[i] = r
	}
	if _, err := s.rels.InsertMany(ctx, docs); err != nil {
		return nil, errors.Persistence(err, "create relationships")
	}
	return out, nil
}

func (s *Store) DeleteRelationship(ctx context.Context, id string) error {
	res, err := s.rels.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Persistence(err, "delete relationship %s", id)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete relationship %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) SavePositions(ctx context.Context, updates []store.PositionUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, len(updates))
	for i, u := range updates {
		models[i] = mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": u.ID}).
			SetUpdate(bson.M{"$set": bson.M{"position": family.Position{X: u.X, Y: u.Y}}})
	}
	_, err := s.people.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	return errors.Persistence(err, "save positions")
}

// stringValues keeps the string values of a Distinct result.
func stringValues(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func toPersonDoc(treeID string, seq int64, p family.Person) personDoc {
	return personDoc{
		ID:              p.ID,
		TreeID:          treeID,
		Seq:             seq,
		FirstName:       p.FirstName,
		Surname:         p.Surname,
		BirthDate:       p.BirthDate,
		AnniversaryDate: p.AnniversaryDate,
		Alive:           p.Alive,
		Gender:          string(p.Gender),
		Notes:           p.Notes,
		Tags:            p.Tags,
		PhotoURL:        p.PhotoURL,
		Position:        p.Position,
	}
}

func (d personDoc) person() family.Person {
	p := family.Person{
		ID:              d.ID,
		FirstName:       d.FirstName,
		Surname:         d.Surname,
		BirthDate:       d.BirthDate,
		AnniversaryDate: d.AnniversaryDate,
		Alive:           d.Alive,
		Gender:          family.Gender(d.Gender),
		Notes:           d.Notes,
		PhotoURL:        d.PhotoURL,
		Position:        d.Position,
	}
	if len(d.Tags) > 0 {
		p.Tags = d.Tags
	}
	return p
}

var _ store.Store = (*Store)(nil)
