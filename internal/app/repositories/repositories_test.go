package repositories

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yigit/internhub/internal/app/migrations"
	"github.com/yigit/internhub/internal/app/models"
	"github.com/yigit/internhub/internal/app/store"
	"github.com/yigit/internhub/internal/db"
)

func TestColumnValues(t *testing.T) {
	values, err := columnValues(models.StudentTable, models.Columns{
		models.ColFullName:      "Nguyen Van A",
		models.ColDateOfBirth:   "2002-01-01",
		models.ColInternshipEnd: "",
	})
	if err != nil {
		t.Fatal(err)
	}
	if values[models.ColFullName] != "Nguyen Van A" {
		t.Errorf("full name = %v", values[models.ColFullName])
	}

	if _, err := columnValues(models.StudentTable, models.Columns{"is_ready": "true"}); err == nil {
		t.Error("expected is_ready to be rejected")
	}
	if _, err := columnValues(models.CompanyTable, models.Columns{models.ColCapacity: "many"}); err == nil {
		t.Error("expected non-numeric capacity to be rejected")
	}
}

// integrationDB connects to TEST_DATABASE_URL when INTERNHUB_INTEGRATION=1.
func integrationDB(t *testing.T) *db.PostgresDB {
	t.Helper()
	if os.Getenv("INTERNHUB_INTEGRATION") != "1" {
		t.Skip("set INTERNHUB_INTEGRATION=1 and TEST_DATABASE_URL to run repository tests")
	}
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		t.Fatal(err)
	}
	database, err := db.Connect(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(database.Close)

	ctx := context.Background()
	if err := migrations.NewMigrator(database.Pool).MigrateFromDirectory(ctx, "../../../migrations"); err != nil {
		t.Fatal(err)
	}
	_, err = database.Pool.Exec(ctx, `TRUNCATE guidance_assignments, guidance_staging, students, teachers, companies RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatal(err)
	}
	return database
}

func TestGuidanceReplaceIntegration(t *testing.T) {
	database := integrationDB(t)
	ctx := context.Background()
	cat := NewRepositories(database.Pool).Catalog()

	if err := cat.Teachers.Insert(ctx, &models.Teacher{Code: "GV007", Name: "Tran Thi B"}); err != nil {
		t.Fatal(err)
	}

	tm := NewTxManager(database)
	replace := func(codes ...string) {
		t.Helper()
		rows := make([]*models.GuidanceAssignment, len(codes))
		for i, c := range codes {
			rows[i] = &models.GuidanceAssignment{StudentCode: c, SourceRow: i + 2}
		}
		err := tm.InParentTx(ctx, []string{"guidance:GV007"}, func(ctx context.Context, txCat *store.Catalog) error {
			return txCat.Guidance.ReplaceForTeacher(ctx, uuid.New(), "GV007", rows)
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	replace("SV001", "SV002")
	replace("SV003")

	got, err := cat.Guidance.ListByTeacher(ctx, "GV007")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].StudentCode != "SV003" {
		t.Fatalf("guidance = %+v, want only SV003", got)
	}

	var staged int
	if err := database.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM guidance_staging`).Scan(&staged); err != nil {
		t.Fatal(err)
	}
	if staged != 0 {
		t.Errorf("staging rows left behind: %d", staged)
	}
}

func TestStudentReadinessTriggerIntegration(t *testing.T) {
	database := integrationDB(t)
	ctx := context.Background()
	cat := NewRepositories(database.Pool).Catalog()

	s := &models.Student{Code: "SV010", FullName: "Le Van C", DesiredPosition: "Backend", HostCompany: "FPT",
		Preference: "HN", DocumentURL: "cv.pdf"}
	if err := cat.Students.Insert(ctx, s); err != nil {
		t.Fatal(err)
	}
	if s.IsReady {
		t.Fatal("student without teacher must not be ready")
	}

	ok, err := cat.Students.AssignTeacherIfBlank(ctx, s.ID, "Tran Thi B")
	if err != nil || !ok {
		t.Fatalf("assign = %v, %v", ok, err)
	}
	ok, err = cat.Students.AssignTeacherIfBlank(ctx, s.ID, "Someone Else")
	if err != nil || ok {
		t.Fatalf("second assign = %v, %v; want no-op", ok, err)
	}

	rows, err := cat.Students.FindByCode(ctx, "SV010")
	if err != nil || len(rows) != 1 {
		t.Fatalf("find = %v, %v", rows, err)
	}
	if !rows[0].IsReady || rows[0].SupervisingTeacher != "Tran Thi B" {
		t.Errorf("student = %+v", rows[0])
	}
}
