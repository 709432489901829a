// Package mongostore implements the backing store on MongoDB collections
// "candidates", "employees" and "users".
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spigell/hr-assistant/internal/hr"
	"github.com/spigell/hr-assistant/internal/store"
)

const connectTimeout = 10 * time.Second

type Store struct {
	client     *mongo.Client
	candidates *mongo.Collection
	employees  *mongo.Collection
	users      *mongo.Collection
	now        func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open connects to uri, pings the server and ensures indexes on database.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, hr.Unavailable(fmt.Errorf("connect mongodb: %w", err))
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, hr.Unavailable(fmt.Errorf("ping mongodb: %w", err))
	}

	s := New(client.Database(database))
	s.client = client
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// New wraps an existing database handle. Close does not disconnect its client.
func New(db *mongo.Database) *Store {
	return &Store{
		candidates: db.Collection("candidates"),
		employees:  db.Collection("employees"),
		users:      db.Collection("users"),
		now:        time.Now,
	}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.candidates.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "candidate_name", Value: 1}, {Key: "position", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
	}); err != nil {
		return hr.Unavailable(fmt.Errorf("create candidate indexes: %w", err))
	}
	if _, err := s.employees.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "employee_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return hr.Unavailable(fmt.Errorf("create employee index: %w", err))
	}
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return hr.Unavailable(fmt.Errorf("create user index: %w", err))
	}
	return nil
}

func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

func (s *Store) ActiveCandidates(ctx context.Context) ([]hr.Candidate, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.candidates.Find(ctx, bson.M{"status": statusActive}, opts)
	if err != nil {
		return nil, hr.Unavailable(fmt.Errorf("list candidates: %w", err))
	}

	var docs []candidateDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, hr.Unavailable(fmt.Errorf("decode candidates: %w", err))
	}

	out := make([]hr.Candidate, len(docs))
	for i, d := range docs {
		out[i] = d.candidate()
	}
	return out, nil
}

func (s *Store) UpsertCandidate(ctx context.Context, c hr.Candidate) (hr.Candidate, error) {
	now := s.now().UTC()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	doc := toCandidateDoc(c)
	set := bson.M{
		"candidate_name":   doc.CandidateName,
		"position":         doc.Position,
		"cv_text":          doc.CVText,
		"skills":           doc.Skills,
		"experience_years": doc.ExperienceYears,
		"education":        doc.Education,
		"email":            doc.Email,
		"phone":            doc.Phone,
		"summary":          doc.Summary,
		"source_file":      doc.SourceFile,
		"status":           doc.Status,
		"updated_at":       doc.UpdatedAt,
	}
	update := bson.M{"$set": set, "$setOnInsert": bson.M{"created_at": doc.CreatedAt}}

	if _, err := s.candidates.UpdateOne(ctx, bson.M{"_id": c.ID}, update, options.Update().SetUpsert(true)); err != nil {
		return hr.Candidate{}, hr.Unavailable(fmt.Errorf("upsert candidate: %w", err))
	}
	return c, nil
}

func (s *Store) MarkCandidateInactive(ctx context.Context, id hr.CandidateIdentity) error {
	filter := bson.M{"candidate_name": id.Name, "position": id.Position, "status": statusActive}
	update := bson.M{"$set": bson.M{"status": statusInactive, "updated_at": s.now().UTC()}}

	res, err := s.candidates.UpdateMany(ctx, filter, update)
	if err != nil {
		return hr.Unavailable(fmt.Errorf("deactivate candidate: %w", err))
	}
	if res.MatchedCount == 0 {
		return hr.NotFound("candidate", id.String())
	}
	return nil
}

func (s *Store) CandidateByIdentity(ctx context.Context, id hr.CandidateIdentity) (hr.Candidate, error) {
	filter := bson.M{"candidate_name": id.Name, "position": id.Position, "status": statusActive}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	var doc candidateDoc
	err := s.candidates.FindOne(ctx, filter, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return hr.Candidate{}, hr.NotFound("candidate", id.String())
	}
	if err != nil {
		return hr.Candidate{}, hr.Unavailable(fmt.Errorf("find candidate: %w", err))
	}
	return doc.candidate(), nil
}

func (s *Store) EmployeeByID(ctx context.Context, employeeID string) (hr.Employee, error) {
	var doc employeeDoc
	err := s.employees.FindOne(ctx, bson.M{"employee_id": employeeID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return hr.Employee{}, hr.NotFound("employee", employeeID)
	}
	if err != nil {
		return hr.Employee{}, hr.Unavailable(fmt.Errorf("find employee: %w", err))
	}
	return doc.employee(), nil
}

func (s *Store) ActiveEmployees(ctx context.Context) ([]hr.Employee, error) {
	opts := options.Find().SetSort(bson.D{{Key: "employee_id", Value: 1}})
	cur, err := s.employees.Find(ctx, bson.M{"status": statusActive}, opts)
	if err != nil {
		return nil, hr.Unavailable(fmt.Errorf("list employees: %w", err))
	}

	var docs []employeeDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, hr.Unavailable(fmt.Errorf("decode employees: %w", err))
	}

	out := make([]hr.Employee, len(docs))
	for i, d := range docs {
		out[i] = d.employee()
	}
	return out, nil
}

func (s *Store) UpdateEmployeeFields(ctx context.Context, employeeID string, update hr.CompensationUpdate) (bool, error) {
	set := compensationFields(update)
	if len(set) == 0 {
		_, err := s.EmployeeByID(ctx, employeeID)
		if errors.Is(err, hr.ErrNotFound) {
			return false, nil
		}
		return err == nil, err
	}

	res, err := s.employees.UpdateOne(ctx, bson.M{"employee_id": employeeID}, bson.M{"$set": set})
	if err != nil {
		return false, hr.Unavailable(fmt.Errorf("update employee: %w", err))
	}
	return res.MatchedCount > 0, nil
}

func (s *Store) UpsertEmployee(ctx context.Context, e hr.Employee) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := s.employees.ReplaceOne(ctx, bson.M{"employee_id": e.EmployeeID}, toEmployeeDoc(e), opts); err != nil {
		return hr.Unavailable(fmt.Errorf("upsert employee: %w", err))
	}
	return nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (hr.User, error) {
	var doc userDoc
	err := s.users.FindOne(ctx, bson.M{"username": username}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return hr.User{}, hr.NotFound("user", username)
	}
	if err != nil {
		return hr.User{}, hr.Unavailable(fmt.Errorf("find user: %w", err))
	}
	return doc.user(), nil
}

func (s *Store) UpsertUser(ctx context.Context, u hr.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	doc := toUserDoc(u)
	set := bson.M{
		"password_hash": doc.PasswordHash,
		"role":          doc.Role,
		"name":          doc.Name,
		"employee_id":   doc.EmployeeID,
		"email":         doc.Email,
		"department":    doc.Department,
		"phone":         doc.Phone,
	}
	update := bson.M{"$set": set, "$setOnInsert": bson.M{"_id": doc.ID}}

	if _, err := s.users.UpdateOne(ctx, bson.M{"username": u.Username}, update, options.Update().SetUpsert(true)); err != nil {
		return hr.Unavailable(fmt.Errorf("upsert user: %w", err))
	}
	return nil
}

func compensationFields(update hr.CompensationUpdate) bson.M {
	set := bson.M{}
	if update.Salary != nil {
		set["salary"] = *update.Salary
	}
	if update.Bonus != nil {
		set["bonus"] = *update.Bonus
	}
	if update.TaxRate != nil {
		set["tax_rate"] = *update.TaxRate
	}
	if update.Deductions != nil {
		set["deductions"] = *update.Deductions
	}
	return set
}
