package httpapi

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/placesapp/places-api/internal/app/authz"
	"github.com/placesapp/places-api/internal/domain"
	"github.com/placesapp/places-api/internal/platform/auth/credential"
	"github.com/placesapp/places-api/internal/ports/out/idempotency"
)

const maxBodyBytes = 1 << 20

const placesRoute = "/api/places"

func (s *Server) ListPlaces(w http.ResponseWriter, r *http.Request) {
	ps, err := s.Places.List(r.Context())
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	if wantsCSV(r) {
		s.writePlacesCSV(w, ps)
		return
	}
	out := make([]placeDTO, 0, len(ps))
	for _, p := range ps {
		out = append(out, placeFromDomain(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) GetPlace(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := domain.ParsePlaceID(raw)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_ID", "invalid place id "+raw, nil)
		return
	}
	p, err := s.Places.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, placeFromDomain(p))
}

func (s *Server) NearbyPlaces(w http.ResponseWriter, r *http.Request) {
	lat, errLat := parseNumber(chi.URLParam(r, "lat"))
	lon, errLon := parseNumber(chi.URLParam(r, "lon"))
	dist, errDist := parseNumber(chi.URLParam(r, "dist"))
	if errLat != nil || errLon != nil || errDist != nil {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "lat, lon and dist must be numbers", nil)
		return
	}
	ref := domain.GeoPoint{Lat: lat, Lon: lon}
	if !ref.Valid() {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "invalid coordinates", map[string]any{
			"lat": "must be within [-90, 90]",
			"lon": "must be within [-180, 180]",
		})
		return
	}

	near, err := s.Places.Nearby(r.Context(), ref, dist)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	out := make([]nearbyPlaceDTO, 0, len(near))
	for _, n := range near {
		out = append(out, nearbyPlaceDTO{placeDTO: placeFromDomain(n.Record), Distance: n.DistanceKm})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) CreatePlace(w http.ResponseWriter, r *http.Request) {
	v := VerificationFromContext(r.Context())
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "unreadable request body", nil)
		return
	}
	var req createPlaceRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.rejectMalformed(w, r, v)
		return
	}

	// Idempotency handling:
	// - Replay if same subject+key+route+bodyHash
	// - Reject if same subject+key+route with different bodyHash (409)
	// Records are written only after a successful create, so a rejected request leaves the key unused.
	key := idempotency.Key(strings.TrimSpace(r.Header.Get("Idempotency-Key")))
	useIdem := s.Idem != nil && key != "" && v.IsAuthenticated()
	bodyHash := hashBody(body)
	metaFP := idempotency.Fingerprint{
		Key:     key,
		Subject: v.Subject(),
		Method:  http.MethodPost,
		Route:   placesRoute,
	}
	respFP := metaFP
	respFP.BodyHash = bodyHash

	if useIdem {
		replayed, err := s.checkIdempotency(w, r, metaFP, respFP, bodyHash)
		if err != nil {
			writeAppError(w, r, s.log, err)
			return
		}
		if replayed {
			return
		}
	}

	p, err := s.Places.Create(r.Context(), v, req.toInput(s.legacyPlacePayload))
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	resp := placeFromDomain(p)

	if useIdem {
		s.storeIdempotent(r, metaFP, respFP, bodyHash, resp)
	}
	writeJSON(w, http.StatusOK, resp)
}

// checkIdempotency replays a stored response or rejects key reuse. It reports whether a response was written.
// It only reads the store.
func (s *Server) checkIdempotency(w http.ResponseWriter, r *http.Request, metaFP, respFP idempotency.Fingerprint, bodyHash string) (bool, error) {
	ctx := r.Context()
	meta, ok, err := s.Idem.Get(ctx, metaFP)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if string(meta.Body) != bodyHash {
		writeError(w, r, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE", "idempotency key reuse with different payload", nil)
		return true, nil
	}

	rec, ok, err := s.Idem.Get(ctx, respFP)
	if err != nil {
		return false, err
	}
	if ok && rec.StatusCode == http.StatusOK && strings.HasPrefix(rec.ContentType, "application/json") {
		w.Header().Set("Content-Type", rec.ContentType)
		w.Header().Set("Idempotent-Replayed", "true")
		w.WriteHeader(rec.StatusCode)
		_, _ = w.Write(rec.Body)
		return true, nil
	}
	return false, nil
}

// storeIdempotent records the body hash under the key and the successful response for replay.
// The place already exists, so failures are logged and the response is still sent.
func (s *Server) storeIdempotent(r *http.Request, metaFP, respFP idempotency.Fingerprint, bodyHash string, resp placeDTO) {
	ctx := r.Context()
	b, err := json.Marshal(resp)
	if err != nil {
		s.log.WarnContext(ctx, "idempotency response not encoded", "error", err)
		return
	}
	now := s.clock.Now()
	if err := s.Idem.Put(ctx, respFP, idempotency.Record{
		StatusCode:  http.StatusOK,
		ContentType: "application/json",
		Body:        b,
		CreatedAt:   now,
	}); err != nil {
		s.log.WarnContext(ctx, "idempotency record not stored", "error", err)
		return
	}
	if err := s.Idem.Put(ctx, metaFP, idempotency.Record{
		StatusCode:  0,
		ContentType: "text/plain",
		Body:        []byte(bodyHash),
		CreatedAt:   now,
	}); err != nil {
		s.log.WarnContext(ctx, "idempotency key not stored", "error", err)
	}
}

func (s *Server) UpdatePlace(w http.ResponseWriter, r *http.Request) {
	v := VerificationFromContext(r.Context())
	var req updatePlaceRequest
	if err := decodeJSON(r, &req); err != nil {
		s.rejectMalformed(w, r, v)
		return
	}
	in, err := req.toInput()
	if err != nil {
		s.rejectMalformed(w, r, v)
		return
	}
	p, err := s.Places.Update(r.Context(), v, pathPlaceID(r), in)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, placeFromDomain(p))
}

func (s *Server) DeletePlace(w http.ResponseWriter, r *http.Request) {
	v := VerificationFromContext(r.Context())
	res, err := s.Places.Delete(r.Context(), v, pathPlaceID(r))
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, deletedPlaceDTO{
		AffectedRows: res.Status.AffectedRows,
		placeDTO:     placeFromDomain(res.Record),
	})
}

// rejectMalformed answers an unparseable mutation body. Callers without a valid credential learn
// only that, so payload errors never outrank authentication.
func (s *Server) rejectMalformed(w http.ResponseWriter, r *http.Request, v credential.Verification) {
	if !v.IsAuthenticated() {
		d := authz.Authorize(v, "")
		writeError(w, r, d.Status, "UNAUTHORIZED", "Not Authorized", nil)
		return
	}
	writeError(w, r, http.StatusBadRequest, "INVALID_JSON", "request body is not valid JSON", nil)
}

func (s *Server) writePlacesCSV(w http.ResponseWriter, ps []domain.Place) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	_ = cw.Write([]string{"ID", "Name", "Latitude", "Longitude", "UserId"})
	for _, p := range ps {
		_ = cw.Write([]string{
			strconv.FormatInt(int64(p.ID), 10),
			p.Name,
			formatFloat(p.Latitude),
			formatFloat(p.Longitude),
			string(p.UserID),
		})
	}
	cw.Flush()
	w.Header().Set("Content-Type", "text/csv")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// pathPlaceID parses the {id} segment. A malformed id yields 0, which the mutation flow reports as not found.
func pathPlaceID(r *http.Request) domain.PlaceID {
	id, err := domain.ParsePlaceID(chi.URLParam(r, "id"))
	if err != nil {
		return 0
	}
	return id
}

func wantsCSV(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/csv")
}

func parseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) {
		return 0, errors.New("NaN")
	}
	return f, nil
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
}

func hashBody(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
