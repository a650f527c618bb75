package postgres_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	sellcourse "gitlab.com/sellcourse/sellcourse-backend"
	"gitlab.com/sellcourse/sellcourse-backend/internal/adapters/repos/postgres"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/course"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/emailverification"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/user"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/valueobject/role"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/env"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/errorx"
	pgpkg "gitlab.com/sellcourse/sellcourse-backend/pkg/postgres"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/watermillx"
)

type RepoSuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	pool      *pgxpool.Pool

	users         *postgres.UserRepo
	verifications *postgres.EmailVerificationRepo
	courses       *postgres.CourseRepo
}

func TestRepoSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres integration tests in short mode")
	}
	suite.Run(t, new(RepoSuite))
}

func (s *RepoSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:17-alpine",
		tcpostgres.WithDatabase("sellcourse_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.Require().NoError(pgpkg.Migrate(dsn, sellcourse.Migrations))

	s.pool, err = pgpkg.NewPgxPool(ctx, dsn, env.Test)
	s.Require().NoError(err)

	wlogger := watermillx.NewSlogAdapter(nil, slog.LevelWarn)
	s.Require().NoError(watermillx.InitializeEventSchema(ctx, s.pool, wlogger))

	s.users = postgres.NewUserRepo(s.pool, nil, nil)
	s.verifications = postgres.NewEmailVerificationRepo(s.pool, nil, nil)
	s.courses = postgres.NewCourseRepo(s.pool, nil, nil)
}

func (s *RepoSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		s.Require().NoError(s.container.Terminate(context.Background()))
	}
}

func (s *RepoSuite) SetupTest() {
	_, err := s.pool.Exec(context.Background(), `TRUNCATE courses, users, email_verifications CASCADE;`)
	s.Require().NoError(err)
}

func (s *RepoSuite) newUser(email string) *user.User {
	hash, err := user.NewPasswordHash("Str0ngP@ss")
	s.Require().NoError(err)
	u, err := user.Register(user.RegisterArgs{
		ID:       user.NewID(),
		Email:    email,
		PassHash: hash,
		Username: "learner",
	})
	s.Require().NoError(err)
	return u
}

func (s *RepoSuite) outboxCount(stream string) int {
	var n int
	err := s.pool.QueryRow(context.Background(), `SELECT count(*) FROM "watermill_`+stream+`";`).Scan(&n)
	s.Require().NoError(err)
	return n
}

func (s *RepoSuite) TestUserRepo_SaveAndGet() {
	ctx := s.T().Context()
	before := s.outboxCount(user.EventStreamName)

	u := s.newUser("learner@example.com")
	s.Require().NoError(s.users.SaveUser(ctx, u))
	s.Empty(u.GetUncommittedEvents())
	s.Equal(before+1, s.outboxCount(user.EventStreamName), "UserRegistered goes through the outbox")

	got, err := s.users.GetUserByEmail(ctx, "learner@example.com")
	s.Require().NoError(err)
	s.Equal(u.ID(), got.ID())
	s.Equal(role.Customer, got.Role())
	s.NoError(got.ComparePassword("Str0ngP@ss"))

	exists, err := s.users.ExistsByEmail(ctx, "learner@example.com")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.users.ExistsByEmail(ctx, "nobody@example.com")
	s.Require().NoError(err)
	s.False(exists)

	_, err = s.users.GetUserByEmail(ctx, "nobody@example.com")
	s.True(errorx.IsNotFound(err))
}

func (s *RepoSuite) TestUserRepo_DuplicateEmail() {
	ctx := s.T().Context()

	s.Require().NoError(s.users.SaveUser(ctx, s.newUser("dup@example.com")))
	err := s.users.SaveUser(ctx, s.newUser("dup@example.com"))
	s.True(errorx.IsCode(err, errorx.CodeEmailExists), "got %v", err)
}

func (s *RepoSuite) TestUserRepo_UpdateRole() {
	ctx := s.T().Context()

	u := s.newUser("promote@example.com")
	s.Require().NoError(s.users.SaveUser(ctx, u))

	err := s.users.UpdateUser(ctx, u.ID(), func(_ context.Context, u *user.User) error {
		return u.ChangeRole(role.Instructor)
	})
	s.Require().NoError(err)

	got, err := s.users.GetUserByID(ctx, u.ID())
	s.Require().NoError(err)
	s.Equal(role.Instructor, got.Role())

	err = s.users.UpdateUser(ctx, user.NewID(), func(context.Context, *user.User) error { return nil })
	s.True(errorx.IsNotFound(err))
}

func (s *RepoSuite) TestEmailVerificationRepo() {
	ctx := s.T().Context()
	before := s.outboxCount(emailverification.EventStreamName)

	v, err := emailverification.New("verify@example.com", env.Test, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.verifications.SaveVerification(ctx, v))
	s.Equal(before+1, s.outboxCount(emailverification.EventStreamName))

	byToken, err := s.verifications.GetVerificationByToken(ctx, v.Token())
	s.Require().NoError(err)
	s.Equal(v.ID(), byToken.ID())
	s.True(byToken.Matches(v.Token(), "verify@example.com", time.Now()))

	byEmail, err := s.verifications.GetVerificationByEmail(ctx, "verify@example.com")
	s.Require().NoError(err)
	s.Equal(v.ID(), byEmail.ID())

	s.Require().NoError(s.verifications.DeleteVerificationByEmail(ctx, "verify@example.com"))
	s.Require().NoError(s.verifications.DeleteVerificationByEmail(ctx, "verify@example.com"))

	_, err = s.verifications.GetVerificationByToken(ctx, v.Token())
	s.True(errorx.IsNotFound(err))
}

func (s *RepoSuite) TestCourseRepo() {
	ctx := s.T().Context()

	instructor := s.newUser("instructor@example.com")
	s.Require().NoError(s.users.SaveUser(ctx, instructor))

	first, err := course.New(course.CreateArgs{
		ID:           course.NewID(),
		InstructorID: instructor.ID(),
		Title:        "Go in Practice",
		Price:        4900,
	})
	s.Require().NoError(err)
	s.Require().NoError(s.courses.SaveCourse(ctx, first))

	second, err := course.New(course.CreateArgs{
		ID:           course.NewID(),
		InstructorID: instructor.ID(),
		Title:        "Go in Practice",
		Price:        100,
	})
	s.Require().NoError(err)
	err = s.courses.SaveCourse(ctx, second)
	s.ErrorIs(err, course.ErrTitleTaken)

	title := "Concurrency in Go"
	err = s.courses.UpdateCourse(ctx, first.ID(), func(_ context.Context, c *course.Course) error {
		return c.Update(course.UpdateArgs{Title: &title})
	})
	s.Require().NoError(err)

	got, err := s.courses.GetCourse(ctx, first.ID())
	s.Require().NoError(err)
	s.Equal(title, got.Title())
	s.Equal(instructor.ID(), got.InstructorID())

	list, total, err := s.courses.ListCourses(ctx, 10, 0)
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Len(list, 1)

	s.Require().NoError(s.courses.DeleteCourse(ctx, first.ID()))
	err = s.courses.DeleteCourse(ctx, first.ID())
	s.True(errorx.IsNotFound(err))
}
