package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"centsible/internal/core"
	"centsible/internal/storage"
)

// Join codes avoid 0/O and 1/I to survive being read out loud.
const joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const joinCodeLen = 4
const joinCodeAttempts = 5

// GroupService manages groups and memberships.
type GroupService struct {
	storage *storage.SQLiteRepository
}

func NewGroupService(storage *storage.SQLiteRepository) *GroupService {
	return &GroupService{storage: storage}
}

// CreateGroup creates a group with a unique join code and the creator as its
// first member.
func (s *GroupService) CreateGroup(ctx context.Context, creatorID int64, name, description string) (core.Group, error) {
	g := core.Group{
		Name:        name,
		Description: description,
		CreatedBy:   creatorID,
	}
	if err := g.Validate(); err != nil {
		return core.Group{}, err
	}

	// Retry on join code collision; the code space is small on purpose.
	for attempt := 0; attempt < joinCodeAttempts; attempt++ {
		code, err := newJoinCode()
		if err != nil {
			return core.Group{}, err
		}
		g.JoinCode = code

		created, err := s.storage.CreateGroup(ctx, g)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, storage.ErrDuplicate) {
			return core.Group{}, err
		}
	}
	return core.Group{}, fmt.Errorf("could not allocate a unique join code after %d attempts", joinCodeAttempts)
}

// JoinGroup adds the user to the group matching the join code.
func (s *GroupService) JoinGroup(ctx context.Context, userID int64, code string) (core.Group, error) {
	group, err := s.storage.GetGroupByJoinCode(ctx, code)
	if err != nil {
		return core.Group{}, err
	}

	if err := s.storage.AddMember(ctx, group.ID, userID); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return core.Group{}, fmt.Errorf("%w: already a member of %q", storage.ErrDuplicate, group.Name)
		}
		return core.Group{}, err
	}
	return group, nil
}

// ListGroups returns the groups the user belongs to.
func (s *GroupService) ListGroups(ctx context.Context, userID int64) ([]core.Group, error) {
	return s.storage.ListGroupsForUser(ctx, userID)
}

// GetGroup returns the group if the user is a member.
func (s *GroupService) GetGroup(ctx context.Context, userID, groupID int64) (core.Group, error) {
	ok, err := s.storage.IsMember(ctx, groupID, userID)
	if err != nil {
		return core.Group{}, err
	}
	if !ok {
		return core.Group{}, ErrNotMember
	}
	return s.storage.GetGroup(ctx, groupID)
}

// Members returns the member ids of a group the user belongs to.
func (s *GroupService) Members(ctx context.Context, userID, groupID int64) ([]int64, error) {
	ok, err := s.storage.IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotMember
	}
	return s.storage.ListMemberIDs(ctx, groupID)
}

func newJoinCode() (string, error) {
	buf := make([]byte, joinCodeLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate join code: %w", err)
	}
	for i, b := range buf {
		buf[i] = joinCodeAlphabet[int(b)%len(joinCodeAlphabet)]
	}
	return string(buf), nil
}
