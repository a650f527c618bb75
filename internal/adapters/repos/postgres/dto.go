package postgres

import (
	"time"

	"github.com/google/uuid"

	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/course"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/emailverification"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/user"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/valueobject/role"
)

type UserDTO struct {
	ID          uuid.UUID
	Email       string
	Passhash    []byte
	Role        string
	Username    string
	Gender      string
	BirthDate   *time.Time
	PhoneNumber string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func DomainToUserDTO(u *user.User) UserDTO {
	dto := UserDTO{
		ID:          uuid.UUID(u.ID()),
		Email:       u.Email(),
		Passhash:    u.PassHash(),
		Role:        u.Role().String(),
		Username:    u.Username(),
		Gender:      string(u.Gender()),
		PhoneNumber: u.PhoneNumber(),
		CreatedAt:   u.CreatedAt(),
		UpdatedAt:   u.UpdatedAt(),
	}
	if bd := u.BirthDate(); !bd.IsZero() {
		dto.BirthDate = &bd
	}
	return dto
}

// UserToDomain rejects rows whose role is outside the known set.
func UserToDomain(dto UserDTO) (*user.User, error) {
	r, err := role.Parse(dto.Role)
	if err != nil {
		return nil, err
	}

	var birthDate time.Time
	if dto.BirthDate != nil {
		birthDate = *dto.BirthDate
	}

	return user.Rehydrate(user.RehydrateArgs{
		ID:          user.ID(dto.ID),
		Email:       dto.Email,
		PassHash:    dto.Passhash,
		Role:        r,
		Username:    dto.Username,
		Gender:      user.Gender(dto.Gender),
		BirthDate:   birthDate,
		PhoneNumber: dto.PhoneNumber,
		CreatedAt:   dto.CreatedAt,
		UpdatedAt:   dto.UpdatedAt,
	}), nil
}

type VerificationDTO struct {
	ID        uuid.UUID
	Email     string
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func DomainToVerificationDTO(v *emailverification.Verification) VerificationDTO {
	return VerificationDTO{
		ID:        uuid.UUID(v.ID()),
		Email:     v.Email(),
		Token:     v.Token(),
		CreatedAt: v.CreatedAt(),
		ExpiresAt: v.ExpiresAt(),
	}
}

func VerificationToDomain(dto VerificationDTO) *emailverification.Verification {
	return emailverification.Rehydrate(emailverification.RehydrateArgs{
		ID:        emailverification.ID(dto.ID),
		Email:     dto.Email,
		Token:     dto.Token,
		CreatedAt: dto.CreatedAt,
		ExpiresAt: dto.ExpiresAt,
	})
}

type CourseDTO struct {
	ID           uuid.UUID
	InstructorID uuid.UUID
	Title        string
	Description  string
	Price        int64
	VideoInfo    string
	ImageInfo    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func DomainToCourseDTO(c *course.Course) CourseDTO {
	return CourseDTO{
		ID:           uuid.UUID(c.ID()),
		InstructorID: uuid.UUID(c.InstructorID()),
		Title:        c.Title(),
		Description:  c.Description(),
		Price:        c.Price(),
		VideoInfo:    c.VideoInfo(),
		ImageInfo:    c.ImageInfo(),
		CreatedAt:    c.CreatedAt(),
		UpdatedAt:    c.UpdatedAt(),
	}
}

func CourseToDomain(dto CourseDTO) *course.Course {
	return course.Rehydrate(course.RehydrateArgs{
		ID:           course.ID(dto.ID),
		InstructorID: user.ID(dto.InstructorID),
		Title:        dto.Title,
		Description:  dto.Description,
		Price:        dto.Price,
		VideoInfo:    dto.VideoInfo,
		ImageInfo:    dto.ImageInfo,
		CreatedAt:    dto.CreatedAt,
		UpdatedAt:    dto.UpdatedAt,
	})
}

func uuidOf[T ~[16]byte](id T) uuid.UUID {
	return uuid.UUID(id)
}
