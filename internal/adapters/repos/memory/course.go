package memory

import (
	"context"
	"sort"
	"sync"

	"gitlab.com/sellcourse/sellcourse-backend/internal/adapters/repos"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/course"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/errorx"
)

type CourseRepo struct {
	mu   sync.Mutex
	byID map[course.ID]*course.Course
}

func NewCourseRepo() *CourseRepo {
	return &CourseRepo{byID: make(map[course.ID]*course.Course)}
}

func (r *CourseRepo) SaveCourse(_ context.Context, c *course.Course) error {
	const op = "memory.CourseRepo.SaveCourse"
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.titleTaken(c.Title(), c.ID()) {
		return errorx.Wrap(course.ErrTitleTaken, op)
	}
	r.byID[c.ID()] = cloneCourse(c)
	return nil
}

func (r *CourseRepo) UpdateCourse(ctx context.Context, id course.ID, fn func(ctx context.Context, c *course.Course) error) error {
	const op = "memory.CourseRepo.UpdateCourse"
	if fn == nil {
		return repos.ErrNilFunc
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return errorx.Wrap(course.ErrNotFound, op)
	}
	c := cloneCourse(stored)

	fnerr := fn(ctx, c)
	if fnerr != nil && !errorx.IsPersistable(fnerr) {
		return errorx.Wrap(fnerr, op)
	}
	if r.titleTaken(c.Title(), c.ID()) {
		return errorx.Wrap(course.ErrTitleTaken, op)
	}

	r.byID[id] = cloneCourse(c)
	return errorx.Wrap(fnerr, op)
}

func (r *CourseRepo) DeleteCourse(_ context.Context, id course.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return errorx.Wrap(course.ErrNotFound, "memory.CourseRepo.DeleteCourse")
	}
	delete(r.byID, id)
	return nil
}

func (r *CourseRepo) GetCourse(_ context.Context, id course.ID) (*course.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.byID[id]; ok {
		return cloneCourse(c), nil
	}
	return nil, errorx.Wrap(course.ErrNotFound, "memory.CourseRepo.GetCourse")
}

func (r *CourseRepo) ListCourses(_ context.Context, limit, offset int) ([]*course.Course, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]*course.Course, 0, len(r.byID))
	for _, c := range r.byID {
		all = append(all, cloneCourse(c))
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt().Equal(all[j].CreatedAt()) {
			return all[i].CreatedAt().After(all[j].CreatedAt())
		}
		return all[i].ID().String() < all[j].ID().String()
	})

	total := len(all)
	if offset >= total {
		return []*course.Course{}, total, nil
	}
	end := min(offset+limit, total)
	return all[offset:end], total, nil
}

func (r *CourseRepo) titleTaken(title string, except course.ID) bool {
	for id, c := range r.byID {
		if id != except && c.Title() == title {
			return true
		}
	}
	return false
}

func cloneCourse(c *course.Course) *course.Course {
	return course.Rehydrate(course.RehydrateArgs{
		ID:           c.ID(),
		InstructorID: c.InstructorID(),
		Title:        c.Title(),
		Description:  c.Description(),
		Price:        c.Price(),
		VideoInfo:    c.VideoInfo(),
		ImageInfo:    c.ImageInfo(),
		CreatedAt:    c.CreatedAt(),
		UpdatedAt:    c.UpdatedAt(),
	})
}
