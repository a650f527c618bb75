package courseapp_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ARUMANDESU/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/sellcourse/sellcourse-backend/internal/adapters/repos/memory"
	"gitlab.com/sellcourse/sellcourse-backend/internal/adapters/services/s3"
	courseapp "gitlab.com/sellcourse/sellcourse-backend/internal/application/course"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/course"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/user"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/valueobject/role"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/validationx"
)

var (
	pngImage  = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
	jpegImage = append([]byte("\xFF\xD8\xFF\xE0"), bytes.Repeat([]byte{0}, 64)...)
)

type suite struct {
	app     *courseapp.App
	repo    *memory.CourseRepo
	storage *s3.Memory

	admin      courseapp.Actor
	instructor courseapp.Actor
	other      courseapp.Actor
	customer   courseapp.Actor
}

func newSuite(t *testing.T) *suite {
	t.Helper()
	repo := memory.NewCourseRepo()
	storage := s3.NewMemory()
	return &suite{
		app:        courseapp.NewApp(courseapp.Args{Repo: repo, Storage: storage}),
		repo:       repo,
		storage:    storage,
		admin:      courseapp.Actor{ID: user.NewID(), Role: role.Admin},
		instructor: courseapp.Actor{ID: user.NewID(), Role: role.Instructor},
		other:      courseapp.Actor{ID: user.NewID(), Role: role.Instructor},
		customer:   courseapp.Actor{ID: user.NewID(), Role: role.Customer},
	}
}

func (s *suite) create(t *testing.T, title string) *course.Course {
	t.Helper()
	c, err := s.app.CreateCourse(t.Context(), courseapp.CreateCourse{
		Actor:       s.instructor,
		Title:       title,
		Description: "  Learn Go  ",
		Price:       199_000,
		VideoInfo:   "https://video.sellcourse.test/intro.mp4",
	})
	require.NoError(t, err)
	return c
}

func TestCreateCourse(t *testing.T) {
	t.Parallel()
	s := newSuite(t)

	c := s.create(t, "  Go in Practice ")
	assert.Equal(t, "Go in Practice", c.Title())
	assert.Equal(t, s.instructor.ID, c.InstructorID())
	assert.Equal(t, int64(199_000), c.Price())

	got, err := s.app.GetCourse(t.Context(), c.ID())
	require.NoError(t, err)
	assert.Equal(t, c.Title(), got.Title())

	t.Run("customer", func(t *testing.T) {
		_, err := s.app.CreateCourse(t.Context(), courseapp.CreateCourse{Actor: s.customer, Title: "Nope course"})
		assert.ErrorIs(t, err, course.ErrNotInstructor)
	})

	t.Run("duplicate title", func(t *testing.T) {
		_, err := s.app.CreateCourse(t.Context(), courseapp.CreateCourse{Actor: s.admin, Title: "Go in Practice"})
		assert.ErrorIs(t, err, course.ErrTitleTaken)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := s.app.CreateCourse(t.Context(), courseapp.CreateCourse{Actor: s.admin, Title: "Go", Price: -1})
		require.Error(t, err)
		validationx.AssertValidationErrors(t, err, validation.Errors{
			"Title": validation.ErrLengthOutOfRange,
			"Price": validation.ErrMinGreaterEqualThanRequired,
		})
	})
}

func TestGetCourse_NotFound(t *testing.T) {
	t.Parallel()
	s := newSuite(t)

	_, err := s.app.GetCourse(t.Context(), course.NewID())
	assert.ErrorIs(t, err, course.ErrNotFound)
}

func TestListCourses(t *testing.T) {
	t.Parallel()
	s := newSuite(t)
	for _, title := range []string{"Course One", "Course Two", "Course Three"} {
		s.create(t, title)
	}

	res, err := s.app.ListCourses(t.Context(), courseapp.ListCourses{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, res.Courses, 2)
	assert.Equal(t, 3, res.Total)

	res, err = s.app.ListCourses(t.Context(), courseapp.ListCourses{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, res.Courses, 1)

	res, err = s.app.ListCourses(t.Context(), courseapp.ListCourses{Limit: 1000, Offset: -5})
	require.NoError(t, err)
	assert.Equal(t, courseapp.MaxPageSize, res.Limit)
	assert.Equal(t, 0, res.Offset)
	assert.Len(t, res.Courses, 3)
}

func TestUpdateCourse(t *testing.T) {
	t.Parallel()
	s := newSuite(t)
	c := s.create(t, "Original Title")
	s.create(t, "Taken Title")

	title := "New Title"
	price := int64(0)

	t.Run("owner", func(t *testing.T) {
		got, err := s.app.UpdateCourse(t.Context(), courseapp.UpdateCourse{Actor: s.instructor, ID: c.ID(), Title: &title, Price: &price})
		require.NoError(t, err)
		assert.Equal(t, "New Title", got.Title())
		assert.Equal(t, int64(0), got.Price())
		assert.Equal(t, "Learn Go", got.Description(), "nil fields stay untouched")
	})

	t.Run("other instructor", func(t *testing.T) {
		_, err := s.app.UpdateCourse(t.Context(), courseapp.UpdateCourse{Actor: s.other, ID: c.ID(), Title: &title})
		assert.ErrorIs(t, err, course.ErrNotInstructor)
	})

	t.Run("admin", func(t *testing.T) {
		desc := "Updated by admin"
		got, err := s.app.UpdateCourse(t.Context(), courseapp.UpdateCourse{Actor: s.admin, ID: c.ID(), Description: &desc})
		require.NoError(t, err)
		assert.Equal(t, desc, got.Description())
	})

	t.Run("title taken", func(t *testing.T) {
		taken := "Taken Title"
		_, err := s.app.UpdateCourse(t.Context(), courseapp.UpdateCourse{Actor: s.admin, ID: c.ID(), Title: &taken})
		assert.ErrorIs(t, err, course.ErrTitleTaken)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := s.app.UpdateCourse(t.Context(), courseapp.UpdateCourse{Actor: s.admin, ID: course.NewID(), Title: &title})
		assert.ErrorIs(t, err, course.ErrNotFound)
	})
}

func TestDeleteCourse(t *testing.T) {
	t.Parallel()
	s := newSuite(t)
	c := s.create(t, "Doomed Course")

	c, err := s.app.UploadCourseImage(t.Context(), courseapp.UploadCourseImage{Actor: s.instructor, ID: c.ID(), Image: bytes.NewReader(pngImage)})
	require.NoError(t, err)

	err = s.app.DeleteCourse(t.Context(), courseapp.DeleteCourse{Actor: s.other, ID: c.ID()})
	assert.ErrorIs(t, err, course.ErrNotInstructor)

	require.NoError(t, s.app.DeleteCourse(t.Context(), courseapp.DeleteCourse{Actor: s.admin, ID: c.ID()}))

	_, err = s.app.GetCourse(t.Context(), c.ID())
	assert.ErrorIs(t, err, course.ErrNotFound)
	_, err = s.storage.Get(c.ImageInfo())
	assert.ErrorIs(t, err, s3.ErrObjectNotFound, "image is removed with the course")

	err = s.app.DeleteCourse(t.Context(), courseapp.DeleteCourse{Actor: s.admin, ID: c.ID()})
	assert.ErrorIs(t, err, course.ErrNotFound)
}

func TestUploadCourseImage(t *testing.T) {
	t.Parallel()
	s := newSuite(t)
	c := s.create(t, "Pictured Course")

	first, err := s.app.UploadCourseImage(t.Context(), courseapp.UploadCourseImage{
		Actor:       s.instructor,
		ID:          c.ID(),
		Image:       bytes.NewReader(pngImage),
		ContentType: "image/png",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.ImageInfo(), "courses/"+c.ID().String()+"/"))
	assert.True(t, strings.HasSuffix(first.ImageInfo(), ".png"))

	obj, err := s.storage.Get(first.ImageInfo())
	require.NoError(t, err)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, pngImage, obj.Data)

	second, err := s.app.UploadCourseImage(t.Context(), courseapp.UploadCourseImage{
		Actor:       s.admin,
		ID:          c.ID(),
		Image:       bytes.NewReader(jpegImage),
		ContentType: "image/png",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(second.ImageInfo(), ".jpg"), "type is sniffed, not trusted")

	_, err = s.storage.Get(first.ImageInfo())
	assert.ErrorIs(t, err, s3.ErrObjectNotFound, "previous image is replaced")

	t.Run("not an image", func(t *testing.T) {
		_, err := s.app.UploadCourseImage(t.Context(), courseapp.UploadCourseImage{
			Actor: s.instructor, ID: c.ID(), Image: strings.NewReader("plain text"), ContentType: "image/png",
		})
		assert.ErrorIs(t, err, course.ErrImageBadFormat)
	})

	t.Run("too large", func(t *testing.T) {
		big := append(append([]byte{}, pngImage...), bytes.Repeat([]byte{1}, courseapp.MaxImageSize)...)
		_, err := s.app.UploadCourseImage(t.Context(), courseapp.UploadCourseImage{
			Actor: s.instructor, ID: c.ID(), Image: bytes.NewReader(big),
		})
		assert.ErrorIs(t, err, course.ErrImageTooLarge)
	})

	t.Run("customer", func(t *testing.T) {
		_, err := s.app.UploadCourseImage(t.Context(), courseapp.UploadCourseImage{
			Actor: s.customer, ID: c.ID(), Image: bytes.NewReader(pngImage),
		})
		assert.ErrorIs(t, err, course.ErrNotInstructor)
	})

	t.Run("missing course", func(t *testing.T) {
		_, err := s.app.UploadCourseImage(t.Context(), courseapp.UploadCourseImage{
			Actor: s.admin, ID: course.NewID(), Image: bytes.NewReader(pngImage),
		})
		assert.ErrorIs(t, err, course.ErrNotFound)
	})
}
