package user

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ARUMANDESU/validation"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/event"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/valueobject/role"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/errorx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/validationx"
)

const PasswordCostFactor = 12

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

func (id ID) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

type Gender string

const (
	GenderUnspecified Gender = ""
	GenderMale        Gender = "MALE"
	GenderFemale      Gender = "FEMALE"
	GenderOther       Gender = "OTHER"
)

func (g Gender) IsValid() bool {
	switch g {
	case GenderUnspecified, GenderMale, GenderFemale, GenderOther:
		return true
	default:
		return false
	}
}

type User struct {
	event.Recorder
	id          ID
	email       string
	passHash    []byte
	role        role.Role
	username    string
	gender      Gender
	birthDate   time.Time
	phoneNumber string
	createdAt   time.Time
	updatedAt   time.Time
}

type RegisterArgs struct {
	ID          ID
	Email       string
	PassHash    []byte
	Username    string
	Gender      Gender
	BirthDate   time.Time
	PhoneNumber string
}

// Register creates a self registered customer and records UserRegistered.
func Register(p RegisterArgs) (*User, error) {
	const op = "user.Register"

	err := validation.ValidateStruct(&p,
		validation.Field(&p.ID, validationx.Required),
		validation.Field(&p.Email, validationx.EmailRules...),
		validation.Field(&p.PassHash, validation.Required),
		validation.Field(&p.Username, validationx.UsernameRules...),
		validation.Field(&p.Gender, validation.By(validateGender)),
		validation.Field(&p.BirthDate, validationx.IsPastDate),
		validation.Field(&p.PhoneNumber, validationx.PhoneNumberRules...),
	)
	if err != nil {
		return nil, errorx.Wrap(err, op)
	}

	now := time.Now().UTC()
	u := &User{
		id:          p.ID,
		email:       p.Email,
		passHash:    p.PassHash,
		role:        role.Default,
		username:    p.Username,
		gender:      p.Gender,
		birthDate:   p.BirthDate,
		phoneNumber: p.PhoneNumber,
		createdAt:   now,
		updatedAt:   now,
	}

	u.AddEvent(&UserRegistered{
		Header:   event.NewEventHeader(),
		UserID:   u.id,
		Email:    u.email,
		Username: u.username,
		Role:     u.role,
	})

	return u, nil
}

type CreateArgs struct {
	ID       ID
	Email    string
	PassHash []byte
	Username string
	Role     role.Role
}

// Create builds a user with an explicit role, used for seeding staff accounts.
// No event is recorded.
func Create(p CreateArgs) (*User, error) {
	const op = "user.Create"

	if !p.Role.IsValid() {
		return nil, errorx.Wrap(ErrInvalidRole, op)
	}
	u, err := Register(RegisterArgs{
		ID:       p.ID,
		Email:    p.Email,
		PassHash: p.PassHash,
		Username: p.Username,
	})
	if err != nil {
		return nil, errorx.Wrap(err, op)
	}
	u.role = p.Role
	u.MarkEventsAsCommitted()

	return u, nil
}

type RehydrateArgs struct {
	ID          ID
	Email       string
	PassHash    []byte
	Role        role.Role
	Username    string
	Gender      Gender
	BirthDate   time.Time
	PhoneNumber string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func Rehydrate(p RehydrateArgs) *User {
	return &User{
		id:          p.ID,
		email:       p.Email,
		passHash:    p.PassHash,
		role:        p.Role,
		username:    p.Username,
		gender:      p.Gender,
		birthDate:   p.BirthDate,
		phoneNumber: p.PhoneNumber,
		createdAt:   p.CreatedAt,
		updatedAt:   p.UpdatedAt,
	}
}

// ChangeRole records UserRoleChanged when the role actually changes.
func (u *User) ChangeRole(r role.Role) error {
	const op = "user.User.ChangeRole"
	if u == nil {
		return errorx.Wrap(errors.New("user is nil"), op)
	}
	if !r.IsValid() {
		return errorx.Wrap(ErrInvalidRole, op)
	}
	if u.role == r {
		return nil
	}

	prev := u.role
	u.role = r
	u.updatedAt = time.Now().UTC()

	u.AddEvent(&UserRoleChanged{
		Header:   event.NewEventHeader(),
		UserID:   u.id,
		Email:    u.email,
		Previous: prev,
		Current:  r,
	})

	return nil
}

// ComparePassword runs in constant time relative to the stored hash.
func (u *User) ComparePassword(password string) error {
	if u == nil || len(u.passHash) == 0 {
		return bcrypt.ErrMismatchedHashAndPassword
	}
	return bcrypt.CompareHashAndPassword(u.passHash, []byte(password))
}

func (u *User) ID() ID {
	if u == nil {
		return ID{}
	}
	return u.id
}

func (u *User) Email() string {
	if u == nil {
		return ""
	}
	return u.email
}

func (u *User) PassHash() []byte {
	if u == nil {
		return nil
	}
	return u.passHash
}

func (u *User) Role() role.Role {
	if u == nil {
		return ""
	}
	return u.role
}

func (u *User) Username() string {
	if u == nil {
		return ""
	}
	return u.username
}

func (u *User) Gender() Gender {
	if u == nil {
		return GenderUnspecified
	}
	return u.gender
}

func (u *User) BirthDate() time.Time {
	if u == nil {
		return time.Time{}
	}
	return u.birthDate
}

func (u *User) PhoneNumber() string {
	if u == nil {
		return ""
	}
	return u.phoneNumber
}

func (u *User) CreatedAt() time.Time {
	if u == nil {
		return time.Time{}
	}
	return u.createdAt
}

func (u *User) UpdatedAt() time.Time {
	if u == nil {
		return time.Time{}
	}
	return u.updatedAt
}

func NewPasswordHash(password string) ([]byte, error) {
	passhash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCostFactor)
	if err != nil {
		return nil, fmt.Errorf("failed to generate password hash from password: %w", err)
	}
	return passhash, nil
}

func validateGender(value any) error {
	g, _ := value.(Gender)
	if !g.IsValid() {
		return ErrInvalidGender
	}
	return nil
}
