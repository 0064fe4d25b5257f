// pkg/session/projects.go
package session

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fyrsmithlabs/gopix/internal/logging"
	"github.com/fyrsmithlabs/gopix/pkg/object"
)

// CurrentProject returns the id of the active project, or "" when none has
// been activated on this session.
func (s *Session) CurrentProject() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// ActivateProject makes the given project the session's active project.
// Results of subsequent requests depend on it server-side.
func (s *Session) ActivateProject(ctx context.Context, id string) error {
	ctx = logging.WithProject(ctx, id)

	_, status, err := s.do(ctx, http.MethodPut, "/session/active_project", nil, map[string]string{"id": id}, "", true)
	if err != nil {
		return fmt.Errorf("failed to activate project %q: %w", id, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("failed to activate project %q: unexpected status %d", id, status)
	}

	s.mu.Lock()
	s.active = id
	s.mu.Unlock()

	s.log.Debug(ctx, "active project switched")
	return nil
}

// Projects lists the projects the logged-in user can access. A limit of 0
// means no limit.
func (s *Session) Projects(ctx context.Context, limit int) ([]*object.Object, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	result, err := s.Get(ctx, "/projects", params)
	if err != nil {
		return nil, err
	}

	switch v := result.(type) {
	case []any:
		projects := make([]*object.Object, 0, len(v))
		for _, item := range v {
			if p, ok := item.(*object.Object); ok {
				projects = append(projects, p)
			}
		}
		return projects, nil
	case *object.Object:
		// The endpoint answers errors as a single mapping instead of a list.
		if kind, err := v.GetString("type"); err == nil && kind == "bad_request" {
			msg, _ := v.GetString("user_message")
			return nil, fmt.Errorf("fetching projects: %w: %s", ErrBadRequest, msg)
		}
		return nil, fmt.Errorf("fetching projects: unexpected response %s", v)
	default:
		return nil, fmt.Errorf("fetching projects: unexpected response type %T", result)
	}
}

// LoadProject resolves a project by label or id, activates it, and returns
// it. The returned object carries the models.Project extension, whose
// methods keep the project active for their own calls.
func (s *Session) LoadProject(ctx context.Context, nameOrID string) (*object.Object, error) {
	if nameOrID == "" {
		return nil, fmt.Errorf("%w: empty name", ErrProjectNotFound)
	}

	projects, err := s.Projects(ctx, 0)
	if err != nil {
		return nil, err
	}

	for _, p := range projects {
		label, _ := p.GetString("label")
		if label == nameOrID || p.ID() == nameOrID {
			if err := s.ActivateProject(ctx, p.ID()); err != nil {
				return nil, err
			}
			return p, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrProjectNotFound, nameOrID)
}
