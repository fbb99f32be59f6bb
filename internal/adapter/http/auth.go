package http

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/couchcryptid/incident-report-service/internal/domain"
	"github.com/gorilla/mux"
)

const locationUnavailable = "Can't read your location. Please enter it manually."

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "login.html", loginPage{})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	logger := s.requestLogger(r).With("username", username)

	switch r.PostFormValue("action") {
	case "Login":
		if _, err := s.deps.Auth.Verify(r.Context(), username, password); err != nil {
			if !errors.Is(err, domain.ErrInvalidCredentials) {
				logger.Error("login failed", "error", err)
			}
			s.render(w, r, http.StatusOK, "login.html", loginPage{Message: "Invalid username or password!"})
			return
		}
		sess, _ := s.deps.Sessions.Get(r, sessionName)
		sess.Values[sessionUsername] = username
		if err := sess.Save(r, w); err != nil {
			logger.Error("save session", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		logger.Info("user logged in")
		http.Redirect(w, r, "/home/"+url.PathEscape(username), http.StatusFound)

	case "Register":
		err := s.deps.Auth.Register(r.Context(), username, password)
		switch {
		case errors.Is(err, domain.ErrDuplicateUser):
			s.render(w, r, http.StatusOK, "login.html", loginPage{Message: fmt.Sprintf("User %s already exists!", username)})
		case errors.Is(err, domain.ErrInvalidInput):
			s.render(w, r, http.StatusOK, "login.html", loginPage{Message: "Username and password are required. Usernames may not contain spaces or any of / ? # % \\."})
		case err != nil:
			logger.Error("register failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		default:
			logger.Info("user registered")
			s.render(w, r, http.StatusOK, "login.html", loginPage{Message: fmt.Sprintf("User %s registered successfully!", username)})
		}

	default:
		s.render(w, r, http.StatusBadRequest, "login.html", loginPage{})
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	if s.sessionUser(r) != username {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	token, err := s.deps.Auth.TokenFor(r.Context(), username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		s.requestLogger(r).Error("load api key", "username", username, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	ip := clientIP(r)
	page := homePage{
		Username:  username,
		Latitude:  locationUnavailable,
		Longitude: locationUnavailable,
		APIKey:    token,
		UserIP:    ip,
	}
	if s.deps.Locator != nil {
		c, err := s.deps.Locator.Locate(r.Context(), ip)
		if err != nil {
			s.requestLogger(r).Warn("ip location failed", "ip", ip, "error", err)
		} else {
			page.Latitude = formatCoord(c.Lat)
			page.Longitude = formatCoord(c.Lon)
		}
	}
	s.render(w, r, http.StatusOK, "home.html", page)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.deps.Sessions.Get(r, sessionName)
	delete(sess.Values, sessionUsername)
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		s.requestLogger(r).Warn("clear session", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) sessionUser(r *http.Request) string {
	sess, err := s.deps.Sessions.Get(r, sessionName)
	if err != nil {
		return ""
	}
	username, _ := sess.Values[sessionUsername].(string)
	return username
}

// clientIP prefers the first X-Forwarded-For hop over the socket address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
