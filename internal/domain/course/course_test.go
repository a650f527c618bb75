package course_test

import (
	"testing"
	"time"

	"github.com/ARUMANDESU/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/course"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/user"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/validationx"
)

func newCourse(t *testing.T) *course.Course {
	t.Helper()
	c, err := course.New(course.CreateArgs{
		ID:           course.NewID(),
		InstructorID: user.NewID(),
		Title:        "Go for Backend Engineers",
		Description:  "Channels, contexts and everything in between.",
		Price:        499_000,
		VideoInfo:    "https://cdn.example.com/intro.mp4",
	})
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	t.Parallel()

	c := newCourse(t)
	assert.Equal(t, "Go for Backend Engineers", c.Title())
	assert.Equal(t, int64(499_000), c.Price())
	assert.Empty(t, c.ImageInfo())
	assert.False(t, c.CreatedAt().IsZero())
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := course.New(course.CreateArgs{
		ID:           course.NewID(),
		InstructorID: user.ID{},
		Title:        "Go",
		Price:        -1,
		VideoInfo:    "not a url",
	})
	validationx.AssertValidationErrors(t, err, validation.Errors{
		"InstructorID": validation.ErrRequired,
		"Title":        validation.ErrLengthOutOfRange,
		"Price":        validation.ErrMinGreaterEqualThanRequired,
		"VideoInfo":    validation.ErrorObject{}.SetCode("validation_is_url"),
	})
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	c := newCourse(t)
	before := c.UpdatedAt()
	time.Sleep(time.Millisecond)

	title := "Go for Platform Engineers"
	price := int64(0)
	require.NoError(t, c.Update(course.UpdateArgs{Title: &title, Price: &price}))

	assert.Equal(t, title, c.Title())
	assert.Equal(t, int64(0), c.Price())
	assert.Equal(t, "Channels, contexts and everything in between.", c.Description(), "nil fields are kept")
	assert.True(t, c.UpdatedAt().After(before))

	empty := ""
	assert.Error(t, c.Update(course.UpdateArgs{Title: &empty}))
	assert.Equal(t, title, c.Title())
}

func TestSetImage(t *testing.T) {
	t.Parallel()

	c := newCourse(t)
	require.NoError(t, c.SetImage("courses/abc/image.png"))
	assert.Equal(t, "courses/abc/image.png", c.ImageInfo())
	assert.Error(t, c.SetImage(""))

	var nilCourse *course.Course
	assert.Error(t, nilCourse.SetImage("x"))
}
