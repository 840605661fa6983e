package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/placesapp/places-api/internal/app/users"
	"github.com/placesapp/places-api/internal/domain"
)

func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	us, err := s.Users.List(r.Context())
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	out := make([]userDTO, 0, len(us))
	for _, u := range us {
		out = append(out, userFromDomain(u))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) GetUser(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := domain.ParseUserID(raw)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_ID", "invalid user id "+raw, nil)
		return
	}
	u, err := s.Users.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, userFromDomain(u))
}

func (s *Server) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_JSON", "request body is not valid JSON", nil)
		return
	}
	sess, err := s.Users.Register(r.Context(), users.Credentials{Name: req.Name, Password: req.Password})
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionDTO{userDTO: userFromDomain(sess.User), Token: sess.Token})
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_JSON", "request body is not valid JSON", nil)
		return
	}
	sess, err := s.Users.Login(r.Context(), users.Credentials{Name: req.Name, Password: req.Password})
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionDTO{userDTO: userFromDomain(sess.User), Token: sess.Token})
}

func (s *Server) UpdateUser(w http.ResponseWriter, r *http.Request) {
	v := VerificationFromContext(r.Context())
	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		s.rejectMalformed(w, r, v)
		return
	}
	in, err := req.toInput()
	if err != nil {
		s.rejectMalformed(w, r, v)
		return
	}
	u, err := s.Users.Update(r.Context(), v, pathUserID(r), in)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, userFromDomain(u))
}

func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	v := VerificationFromContext(r.Context())
	res, err := s.Users.Delete(r.Context(), v, pathUserID(r))
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, deletedUserDTO{
		AffectedRows: res.Status.AffectedRows,
		userDTO:      userFromDomain(res.Record),
	})
}

func pathUserID(r *http.Request) domain.UserID {
	id, err := domain.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		return 0
	}
	return id
}
