package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/go-chi/chi/v5/middleware"
)

// Request bodies use pointers so a missing field can be told apart from a
// zero value; both missing fields and type errors are answered with 422.
type signupRequest struct {
	Email       *string `json:"email"`
	Password    *string `json:"password"`
	Requires2FA *bool   `json:"requires2FA"`
}

type loginRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type verify2FARequest struct {
	Email          *string `json:"email"`
	LoginAttemptID *string `json:"loginAttemptId"`
	TwoFACode      *string `json:"2FACode"`
}

type verifyTokenRequest struct {
	Token *string `json:"token"`
}

const maxBodyBytes = 1 << 16

var errMissingField = errors.New("missing field")

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

func required(fields ...any) error {
	for _, f := range fields {
		switch v := f.(type) {
		case *string:
			if v == nil {
				return errMissingField
			}
		case *bool:
			if v == nil {
				return errMissingField
			}
		}
	}
	return nil
}

func (s *HTTPServer) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decode(w, r, &req); err != nil || required(req.Email, req.Password, req.Requires2FA) != nil {
		writeError(w, http.StatusUnprocessableEntity, msgUnprocessable)
		return
	}

	if err := s.service.Signup(r.Context(), *req.Email, *req.Password, *req.Requires2FA); err != nil {
		s.fail(w, r, "signup", err)
		return
	}

	writeJSON(w, http.StatusCreated, messageResponse{Message: "User created successfully!"})
}

func (s *HTTPServer) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil || required(req.Email, req.Password) != nil {
		writeError(w, http.StatusUnprocessableEntity, msgUnprocessable)
		return
	}

	res, err := s.service.Login(r.Context(), *req.Email, *req.Password)
	if err != nil {
		s.fail(w, r, "login", err)
		return
	}

	if res.Requires2FA() {
		writeJSON(w, http.StatusPartialContent, messageResponse{
			Message:        "2FA required",
			LoginAttemptID: res.AttemptID.String(),
		})
		return
	}

	setTokenCookie(w, res.Token)
	w.WriteHeader(http.StatusOK)
}

func (s *HTTPServer) verify2FA(w http.ResponseWriter, r *http.Request) {
	var req verify2FARequest
	if err := decode(w, r, &req); err != nil || required(req.Email, req.LoginAttemptID, req.TwoFACode) != nil {
		writeError(w, http.StatusUnprocessableEntity, msgUnprocessable)
		return
	}

	tok, err := s.service.Verify2FA(r.Context(), *req.Email, *req.LoginAttemptID, *req.TwoFACode)
	if err != nil {
		s.fail(w, r, "verify_2fa", err)
		return
	}

	setTokenCookie(w, tok)
	w.WriteHeader(http.StatusOK)
}

func (s *HTTPServer) logout(w http.ResponseWriter, r *http.Request) {
	var token string
	if c, err := r.Cookie(common.AuthCookieName); err == nil {
		token = c.Value
	}

	if err := s.service.Logout(r.Context(), token); err != nil {
		s.fail(w, r, "logout", err)
		return
	}

	clearTokenCookie(w)
	w.WriteHeader(http.StatusOK)
}

func (s *HTTPServer) verifyToken(w http.ResponseWriter, r *http.Request) {
	var req verifyTokenRequest
	if err := decode(w, r, &req); err != nil || required(req.Token) != nil {
		writeError(w, http.StatusUnprocessableEntity, msgUnprocessable)
		return
	}

	if _, err := s.service.VerifyToken(r.Context(), *req.Token); err != nil {
		// an empty token is just another invalid one here
		if errors.Is(err, common.ErrMissingToken) {
			err = common.ErrInvalidToken
		}
		s.fail(w, r, "verify_token", err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *HTTPServer) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := mapError(err)
	fields := []any{"operation", op, "status_code", status, "request_id", middleware.GetReqID(r.Context())}
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", append(fields, "error", err.Error())...)
	} else {
		s.logger.Debug(r.Context(), "request rejected", append(fields, "error", err.Error())...)
	}
	writeError(w, status, msg)
}

func setTokenCookie(w http.ResponseWriter, tok *auth.Token) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.AuthCookieName,
		Value:    tok.Value,
		Path:     "/",
		Expires:  tok.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.AuthCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
