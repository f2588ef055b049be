package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	httpadapter "reelrivals/contexts/battle-arena/battle-engine/adapters/http"
	battledomainerrors "reelrivals/contexts/battle-arena/battle-engine/domain/errors"
	battlehttp "reelrivals/contexts/battle-arena/battle-engine/transport/http"
)

// multipartMemory bounds the in-memory part of a parsed upload; larger
// files spill to temporary files.
const multipartMemory = 8 << 20

func (s *Server) handleUploadVideo(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeBattleError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "upload exceeds the size limit")
			return
		}
		writeBattleError(w, http.StatusBadRequest, "invalid_multipart", "request must be multipart/form-data")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("video")
	if err != nil {
		writeBattleError(w, http.StatusBadRequest, "missing_video", "video file is required")
		return
	}
	defer file.Close()

	resp, err := s.battles.Handler.UploadVideoHandler(r.Context(), httpadapter.UploadVideoInput{
		OwnerID:     identity.UserID,
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Tags:        r.FormValue("tags"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		writeBattleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListMyVideos(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	resp, err := s.battles.Handler.ListMyVideosHandler(r.Context(), identity.UserID)
	if err != nil {
		writeBattleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	resp, err := s.battles.Handler.GetVideoHandler(r.Context(), r.PathValue("video_id"))
	if err != nil {
		writeBattleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecordView(w http.ResponseWriter, r *http.Request) {
	resp, err := s.battles.Handler.RecordViewHandler(r.Context(), r.PathValue("video_id"))
	if err != nil {
		writeBattleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	resp, err := s.battles.Handler.DeleteVideoHandler(r.Context(), identity.UserID, r.PathValue("video_id"))
	if err != nil {
		writeBattleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateBattle(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}

	var req battlehttp.CreateBattleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBattleError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.battles.Handler.CreateBattleHandler(r.Context(), req)
	if err != nil {
		writeBattleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListActiveBattles(w http.ResponseWriter, r *http.Request) {
	resp, err := s.battles.Handler.ListActiveBattlesHandler(r.Context())
	if err != nil {
		writeBattleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetBattle(w http.ResponseWriter, r *http.Request) {
	resp, err := s.battles.Handler.GetBattleHandler(r.Context(), r.PathValue("battle_id"))
	if err != nil {
		writeBattleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req battlehttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBattleError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))

	resp, err := s.battles.Handler.CastVoteHandler(r.Context(), identity.UserID, idempotencyKey, req)
	if err != nil {
		writeBattleDomainError(w, err)
		return
	}
	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	resp, err := s.battles.Handler.GetProfileHandler(r.Context(), identity.UserID, identity.Username)
	if err != nil {
		writeBattleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeBattleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, battledomainerrors.ErrVideoNotFound):
		writeBattleError(w, http.StatusNotFound, "video_not_found", err.Error())
	case errors.Is(err, battledomainerrors.ErrBattleNotFound):
		writeBattleError(w, http.StatusNotFound, "battle_not_found", err.Error())
	case errors.Is(err, battledomainerrors.ErrUnauthenticated):
		writeBattleError(w, http.StatusUnauthorized, "unauthenticated", "Not authenticated")
	case errors.Is(err, battledomainerrors.ErrForbidden):
		writeBattleError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, battledomainerrors.ErrInvalidUpload):
		writeBattleError(w, http.StatusBadRequest, "invalid_upload", err.Error())
	case errors.Is(err, battledomainerrors.ErrInvalidVideo):
		writeBattleError(w, http.StatusBadRequest, "invalid_video", err.Error())
	case errors.Is(err, battledomainerrors.ErrInvalidBattleRequest):
		writeBattleError(w, http.StatusBadRequest, "invalid_battle_request", err.Error())
	case errors.Is(err, battledomainerrors.ErrNoSharedTag):
		writeBattleError(w, http.StatusBadRequest, "no_shared_tag", err.Error())
	case errors.Is(err, battledomainerrors.ErrInvalidVoteReference):
		writeBattleError(w, http.StatusBadRequest, "invalid_vote_reference", err.Error())
	case errors.Is(err, battledomainerrors.ErrVideoUnavailable):
		writeBattleError(w, http.StatusConflict, "video_unavailable", err.Error())
	case errors.Is(err, battledomainerrors.ErrBattleConflict):
		writeBattleError(w, http.StatusConflict, "battle_conflict", err.Error())
	case errors.Is(err, battledomainerrors.ErrDuplicateVote):
		writeBattleError(w, http.StatusConflict, "already_voted", err.Error())
	case errors.Is(err, battledomainerrors.ErrBattleInactive):
		writeBattleError(w, http.StatusConflict, "battle_inactive", err.Error())
	case errors.Is(err, battledomainerrors.ErrIdempotencyKeyConflict):
		writeBattleError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	default:
		writeBattleError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeBattleError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, battlehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
