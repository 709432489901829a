package mongostore

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/spigell/hr-assistant/internal/hr"
)

func TestStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("employee by id", func(mt *mtest.T) {
		s := New(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "hr.employees", mtest.FirstBatch, bson.D{
			{Key: "employee_id", Value: "EMP001"},
			{Key: "name", Value: "Priya Sharma"},
			{Key: "department", Value: "IT"},
			{Key: "salary", Value: 100000.0},
			{Key: "status", Value: "active"},
		}))

		e, err := s.EmployeeByID(context.Background(), "EMP001")
		if err != nil {
			mt.Fatalf("EmployeeByID error: %v", err)
		}
		if e.Name != "Priya Sharma" || e.SalaryOrDefault() != 100000 || !e.Active || e.Bonus != nil {
			mt.Fatalf("unexpected employee %+v", e)
		}
	})

	mt.Run("employee not found", func(mt *mtest.T) {
		s := New(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "hr.employees", mtest.FirstBatch))

		if _, err := s.EmployeeByID(context.Background(), "EMP404"); !errors.Is(err, hr.ErrNotFound) {
			mt.Fatalf("expected not found, got %v", err)
		}
	})

	mt.Run("active candidates", func(mt *mtest.T) {
		s := New(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "hr.candidates", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "c1"}, {Key: "candidate_name", Value: "John Doe"}, {Key: "position", Value: "Java Developer"}, {Key: "status", Value: "active"}},
			bson.D{{Key: "_id", Value: "c2"}, {Key: "candidate_name", Value: "Anita Verma"}, {Key: "position", Value: "Designer"}, {Key: "status", Value: "active"}},
		))

		got, err := s.ActiveCandidates(context.Background())
		if err != nil {
			mt.Fatalf("ActiveCandidates error: %v", err)
		}
		if len(got) != 2 || got[1].Identity.Name != "Anita Verma" || !got[0].Active {
			mt.Fatalf("unexpected candidates %+v", got)
		}
	})

	mt.Run("mark inactive unknown identity", func(mt *mtest.T) {
		s := New(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := s.MarkCandidateInactive(context.Background(), hr.CandidateIdentity{Name: "Ghost", Position: "None"})
		if !errors.Is(err, hr.ErrNotFound) {
			mt.Fatalf("expected not found, got %v", err)
		}
	})

	mt.Run("update employee fields", func(mt *mtest.T) {
		s := New(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
		)

		ok, err := s.UpdateEmployeeFields(context.Background(), "EMP001", hr.CompensationUpdate{Bonus: hr.Float(5000)})
		if err != nil || !ok {
			mt.Fatalf("expected update to match, got %v %v", ok, err)
		}
		ok, err = s.UpdateEmployeeFields(context.Background(), "EMP404", hr.CompensationUpdate{Bonus: hr.Float(5000)})
		if err != nil || ok {
			mt.Fatalf("expected no match, got %v %v", ok, err)
		}
	})
}

func TestCompensationFieldsWhitelist(t *testing.T) {
	t.Parallel()

	set := compensationFields(hr.CompensationUpdate{Salary: hr.Float(1), TaxRate: hr.Float(0.2)})
	if len(set) != 2 || set["salary"] != 1.0 || set["tax_rate"] != 0.2 {
		t.Fatalf("unexpected fields %v", set)
	}
}
