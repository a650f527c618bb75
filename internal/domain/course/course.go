package course

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/ARUMANDESU/validation"
	"github.com/ARUMANDESU/validation/is"
	"github.com/google/uuid"

	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/user"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/errorx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/validationx"
)

const (
	MinTitleLen       = 3
	MaxTitleLen       = 200
	MaxDescriptionLen = 10_000
	MaxURLLen         = 2048
	// MaxPrice is in minor currency units.
	MaxPrice = 1_000_000_000
)

type ID uuid.UUID

func NewID() ID {
	return ID(uuid.New())
}

func ParseID(s string) (ID, error) {
	uid, err := uuid.Parse(s)
	if err != nil {
		return ID{}, err
	}
	return ID(uid), nil
}

func (id ID) String() string {
	return uuid.UUID(id).String()
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

type Course struct {
	id           ID
	instructorID user.ID
	title        string
	description  string
	price        int64
	videoInfo    string
	imageInfo    string
	createdAt    time.Time
	updatedAt    time.Time
}

type CreateArgs struct {
	ID           ID
	InstructorID user.ID
	Title        string
	Description  string
	Price        int64
	VideoInfo    string
}

func New(p CreateArgs) (*Course, error) {
	const op = "course.New"

	err := validation.ValidateStruct(&p,
		validation.Field(&p.ID, validationx.Required),
		validation.Field(&p.InstructorID, validationx.Required),
		validation.Field(&p.Title, titleRules...),
		validation.Field(&p.Description, descriptionRules...),
		validation.Field(&p.Price, priceRules...),
		validation.Field(&p.VideoInfo, videoRules...),
	)
	if err != nil {
		return nil, errorx.Wrap(err, op)
	}

	now := time.Now().UTC()
	return &Course{
		id:           p.ID,
		instructorID: p.InstructorID,
		title:        p.Title,
		description:  p.Description,
		price:        p.Price,
		videoInfo:    p.VideoInfo,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

type RehydrateArgs struct {
	ID           ID
	InstructorID user.ID
	Title        string
	Description  string
	Price        int64
	VideoInfo    string
	ImageInfo    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func Rehydrate(p RehydrateArgs) *Course {
	return &Course{
		id:           p.ID,
		instructorID: p.InstructorID,
		title:        p.Title,
		description:  p.Description,
		price:        p.Price,
		videoInfo:    p.VideoInfo,
		imageInfo:    p.ImageInfo,
		createdAt:    p.CreatedAt,
		updatedAt:    p.UpdatedAt,
	}
}

// UpdateArgs leaves nil fields untouched.
type UpdateArgs struct {
	Title       *string
	Description *string
	Price       *int64
	VideoInfo   *string
}

func (c *Course) Update(p UpdateArgs) error {
	const op = "course.Course.Update"
	if c == nil {
		return errorx.Wrap(errors.New("course is nil"), op)
	}

	err := validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.NilOrNotEmpty, validation.Length(MinTitleLen, MaxTitleLen)),
		validation.Field(&p.Description, descriptionRules...),
		validation.Field(&p.Price, priceRules...),
		validation.Field(&p.VideoInfo, videoRules...),
	)
	if err != nil {
		return errorx.Wrap(err, op)
	}

	if p.Title != nil {
		c.title = *p.Title
	}
	if p.Description != nil {
		c.description = *p.Description
	}
	if p.Price != nil {
		c.price = *p.Price
	}
	if p.VideoInfo != nil {
		c.videoInfo = *p.VideoInfo
	}
	c.updatedAt = time.Now().UTC()

	return nil
}

// SetImage points the course at an uploaded object key.
func (c *Course) SetImage(key string) error {
	const op = "course.Course.SetImage"
	if c == nil {
		return errorx.Wrap(errors.New("course is nil"), op)
	}
	if err := validation.Validate(key, validation.Required, validation.Length(1, MaxURLLen)); err != nil {
		return errorx.Wrap(err, op)
	}

	c.imageInfo = key
	c.updatedAt = time.Now().UTC()
	return nil
}

func (c *Course) ID() ID {
	if c == nil {
		return ID{}
	}
	return c.id
}

func (c *Course) InstructorID() user.ID {
	if c == nil {
		return user.ID{}
	}
	return c.instructorID
}

func (c *Course) Title() string {
	if c == nil {
		return ""
	}
	return c.title
}

func (c *Course) Description() string {
	if c == nil {
		return ""
	}
	return c.description
}

func (c *Course) Price() int64 {
	if c == nil {
		return 0
	}
	return c.price
}

func (c *Course) VideoInfo() string {
	if c == nil {
		return ""
	}
	return c.videoInfo
}

func (c *Course) ImageInfo() string {
	if c == nil {
		return ""
	}
	return c.imageInfo
}

func (c *Course) CreatedAt() time.Time {
	if c == nil {
		return time.Time{}
	}
	return c.createdAt
}

func (c *Course) UpdatedAt() time.Time {
	if c == nil {
		return time.Time{}
	}
	return c.updatedAt
}

var (
	titleRules = []validation.Rule{
		validation.Required,
		validation.Length(MinTitleLen, MaxTitleLen),
	}
	descriptionRules = []validation.Rule{
		validation.Length(0, MaxDescriptionLen),
	}
	priceRules = []validation.Rule{
		validation.Min(int64(0)),
		validation.Max(int64(MaxPrice)),
	}
	videoRules = []validation.Rule{
		validation.Length(0, MaxURLLen),
		is.URL,
	}
)
