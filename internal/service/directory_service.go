package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/tabsplit/internal/api"
	"github.com/mmynk/tabsplit/internal/models"
	"github.com/mmynk/tabsplit/internal/storage"
)

// DirectoryService implements the Connect DirectoryService
type DirectoryService struct {
	store storage.Directory
}

var _ api.DirectoryServiceHandler = (*DirectoryService)(nil)

// NewDirectoryService creates a new DirectoryService with the given storage backend.
func NewDirectoryService(store storage.Directory) *DirectoryService {
	return &DirectoryService{store: store}
}

// SavePerson creates a directory entry, or updates the one with the given GUID.
func (s *DirectoryService) SavePerson(ctx context.Context, req *connect.Request[api.SavePersonRequest]) (*connect.Response[api.SavePersonResponse], error) {
	in := req.Msg.Person
	slog.Info("SavePerson request received", "guid", in.GUID, "name", in.Name)

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("name is required"))
	}

	var person *models.Person
	if in.GUID == "" {
		person = models.NewPerson(name, in.Email)
	} else {
		existing, err := s.store.GetPerson(ctx, in.GUID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			// Entries created offline keep the GUID bills already refer to
			person = models.NewPerson(name, in.Email)
			person.GUID = in.GUID
		case err != nil:
			slog.Error("SavePerson lookup failed", "guid", in.GUID, "error", err)
			return nil, connect.NewError(connect.CodeInternal, err)
		default:
			person = existing
			person.Name = name
			person.Email = in.Email
		}
	}

	if err := s.store.SavePerson(ctx, person); err != nil {
		slog.Error("SavePerson failed", "guid", person.GUID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("Person saved", "guid", person.GUID)
	return connect.NewResponse(&api.SavePersonResponse{Person: api.PersonFromModel(person)}), nil
}

// GetPerson retrieves a directory entry by GUID.
func (s *DirectoryService) GetPerson(ctx context.Context, req *connect.Request[api.GetPersonRequest]) (*connect.Response[api.GetPersonResponse], error) {
	slog.Info("GetPerson request received", "guid", req.Msg.GUID)

	person, err := s.store.GetPerson(ctx, req.Msg.GUID)
	if err != nil {
		return nil, storageError(err)
	}
	return connect.NewResponse(&api.GetPersonResponse{Person: api.PersonFromModel(person)}), nil
}

// ListPeople lists the directory.
func (s *DirectoryService) ListPeople(ctx context.Context, req *connect.Request[api.ListPeopleRequest]) (*connect.Response[api.ListPeopleResponse], error) {
	people, err := s.store.ListPeople(ctx)
	if err != nil {
		slog.Error("ListPeople failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	resp := &api.ListPeopleResponse{People: make([]api.Person, 0, len(people))}
	for _, p := range people {
		resp.People = append(resp.People, api.PersonFromModel(p))
	}
	return connect.NewResponse(resp), nil
}
