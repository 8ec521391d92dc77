package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/octobees/contacts-manager/api/internal/entity"
	"github.com/octobees/contacts-manager/api/internal/query"
)

// ContactsCollection is the collection name used for contact documents.
const ContactsCollection = "contacts"

// mongoCollection is the subset of *mongo.Collection used by the repository.
type mongoCollection interface {
	Find(ctx context.Context, filter any, opts ...*options.FindOptions) (*mongo.Cursor, error)
	FindOne(ctx context.Context, filter any, opts ...*options.FindOneOptions) *mongo.SingleResult
	InsertOne(ctx context.Context, document any, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	ReplaceOne(ctx context.Context, filter any, replacement any, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter any, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

var _ mongoCollection = (*mongo.Collection)(nil)

// MongoContactsRepository stores contacts in a MongoDB collection keyed by ObjectID.
type MongoContactsRepository struct {
	collection mongoCollection
}

// NewMongoContactsRepository wires a repository over the contacts collection of db.
func NewMongoContactsRepository(db *mongo.Database) *MongoContactsRepository {
	return &MongoContactsRepository{collection: db.Collection(ContactsCollection)}
}

var _ ContactsRepository = (*MongoContactsRepository)(nil)

type addressDocument struct {
	Street  string `bson:"street"`
	City    string `bson:"city"`
	State   string `bson:"state"`
	Country string `bson:"country"`
	ZipCode string `bson:"zipCode"`
}

type socialMediaDocument struct {
	LinkedIn string `bson:"linkedin,omitempty"`
	Twitter  string `bson:"twitter,omitempty"`
	Facebook string `bson:"facebook,omitempty"`
}

type contactDocument struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty"`
	FirstName       string               `bson:"firstName"`
	LastName        string               `bson:"lastName"`
	Email           string               `bson:"email"`
	Phone           string               `bson:"phone"`
	Company         string               `bson:"company,omitempty"`
	JobTitle        string               `bson:"jobTitle,omitempty"`
	Address         addressDocument      `bson:"address"`
	Tags            []string             `bson:"tags"`
	Notes           string               `bson:"notes,omitempty"`
	SocialMedia     *socialMediaDocument `bson:"socialMedia,omitempty"`
	Status          string               `bson:"status"`
	LastContactDate *time.Time           `bson:"lastContactDate,omitempty"`
	CreatedAt       time.Time            `bson:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt"`
}

// List returns contacts matching the predicate in natural order.
func (r *MongoContactsRepository) List(ctx context.Context, predicate query.Predicate) ([]entity.Contact, error) {
	cursor, err := r.collection.Find(ctx, renderBSON(predicate))
	if err != nil {
		return nil, storeError("find contacts", err)
	}
	defer cursor.Close(ctx)

	contacts := make([]entity.Contact, 0)
	for cursor.Next(ctx) {
		var doc contactDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, storeError("decode contact", err)
		}
		contacts = append(contacts, doc.toEntity())
	}
	if err := cursor.Err(); err != nil {
		return nil, storeError("iterate contacts", err)
	}
	return contacts, nil
}

// FindByID fetches a contact by its hex ObjectID.
func (r *MongoContactsRepository) FindByID(ctx context.Context, id string) (*entity.Contact, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrContactNotFound
	}
	doc, err := r.findOne(ctx, objectID)
	if err != nil {
		return nil, err
	}
	contact := doc.toEntity()
	return &contact, nil
}

// Insert stores a new contact under a fresh ObjectID.
func (r *MongoContactsRepository) Insert(ctx context.Context, contact *entity.Contact) (*entity.Contact, error) {
	if contact == nil {
		return nil, fmt.Errorf("contact payload is nil")
	}

	doc := newContactDocument(*contact)
	doc.ID = primitive.NewObjectID()
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return nil, storeError("insert contact", err)
	}

	stored := doc.toEntity()
	return &stored, nil
}

// Update reads the contact, applies mutate and replaces the whole document.
// Concurrent updates resolve as last writer wins.
func (r *MongoContactsRepository) Update(ctx context.Context, id string, mutate MutateFunc) (*entity.Contact, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrContactNotFound
	}
	existing, err := r.findOne(ctx, objectID)
	if err != nil {
		return nil, err
	}

	updated, err := mutate(existing.toEntity())
	if err != nil {
		return nil, err
	}

	replacement := newContactDocument(updated)
	replacement.ID = objectID
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": objectID}, replacement)
	if err != nil {
		return nil, storeError("replace contact", err)
	}
	if result.MatchedCount == 0 {
		return nil, ErrContactNotFound
	}

	stored := replacement.toEntity()
	return &stored, nil
}

// Delete removes a contact by its hex ObjectID.
func (r *MongoContactsRepository) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrContactNotFound
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return storeError("delete contact", err)
	}
	if result.DeletedCount == 0 {
		return ErrContactNotFound
	}
	return nil
}

func (r *MongoContactsRepository) findOne(ctx context.Context, id primitive.ObjectID) (*contactDocument, error) {
	var doc contactDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrContactNotFound
		}
		return nil, storeError("find contact", err)
	}
	return &doc, nil
}

// renderBSON translates a predicate into a MongoDB filter document.
func renderBSON(p query.Predicate) bson.M {
	switch p.Op {
	case query.OpAnd, query.OpOr:
		if len(p.Children) == 0 {
			if p.Op == query.OpAnd {
				return bson.M{}
			}
			return bson.M{"$nor": bson.A{bson.M{}}}
		}
		children := make(bson.A, 0, len(p.Children))
		for _, child := range p.Children {
			children = append(children, renderBSON(child))
		}
		if p.Op == query.OpAnd {
			return bson.M{"$and": children}
		}
		return bson.M{"$or": children}
	case query.OpContains:
		return bson.M{string(p.Field): primitive.Regex{Pattern: regexp.QuoteMeta(p.Value), Options: "i"}}
	case query.OpAnyOf:
		return bson.M{string(p.Field): bson.M{"$in": append([]string{}, p.Values...)}}
	case query.OpEquals:
		return bson.M{string(p.Field): p.Value}
	default:
		return bson.M{"$nor": bson.A{bson.M{}}}
	}
}

func newContactDocument(c entity.Contact) contactDocument {
	doc := contactDocument{
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		Company:   c.Company,
		JobTitle:  c.JobTitle,
		Address: addressDocument{
			Street:  c.Address.Street,
			City:    c.Address.City,
			State:   c.Address.State,
			Country: c.Address.Country,
			ZipCode: c.Address.ZipCode,
		},
		Tags:      append([]string{}, c.Tags...),
		Notes:     c.Notes,
		Status:    string(c.Status),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.SocialMedia != nil {
		doc.SocialMedia = &socialMediaDocument{
			LinkedIn: c.SocialMedia.LinkedIn,
			Twitter:  c.SocialMedia.Twitter,
			Facebook: c.SocialMedia.Facebook,
		}
	}
	if c.LastContactDate != nil {
		ts := *c.LastContactDate
		doc.LastContactDate = &ts
	}
	return doc
}

func (d contactDocument) toEntity() entity.Contact {
	c := entity.Contact{
		ID:        d.ID.Hex(),
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Email:     d.Email,
		Phone:     d.Phone,
		Company:   d.Company,
		JobTitle:  d.JobTitle,
		Address: entity.Address{
			Street:  d.Address.Street,
			City:    d.Address.City,
			State:   d.Address.State,
			Country: d.Address.Country,
			ZipCode: d.Address.ZipCode,
		},
		Tags:      append([]string{}, d.Tags...),
		Notes:     d.Notes,
		Status:    entity.Status(d.Status),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.SocialMedia != nil {
		c.SocialMedia = &entity.SocialMedia{
			LinkedIn: d.SocialMedia.LinkedIn,
			Twitter:  d.SocialMedia.Twitter,
			Facebook: d.SocialMedia.Facebook,
		}
	}
	if d.LastContactDate != nil {
		ts := *d.LastContactDate
		c.LastContactDate = &ts
	}
	return c
}
