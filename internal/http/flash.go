package http

import (
	"bufio"
	"database/sql"
	"encoding/gob"
	"net"
	nethttp "net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/gin-gonic/gin"
)

// Flash keys. Each value is popped on first read, so messages and redisplayed
// form state survive exactly one redirect.
const (
	flashKeySuccess    = "flash_success"
	flashKeyError      = "flash_error"
	flashKeyFormErrors = "form_errors"
	flashKeyFormValues = "form_values"
)

func init() {
	// Register types stored in the flash session
	gob.Register([]string{})
	gob.Register(map[string]string{})
}

// FlashManager wraps scs.SessionManager for the one job the browser session
// has here: carrying messages and rejected form state across a redirect. The
// API bearer token never goes near it.
type FlashManager struct {
	*scs.SessionManager
}

// NewFlashManager creates the manager on top of a SQLite connection, which
// may be shared with the session store.
func NewFlashManager(sqlDB *sql.DB, secureCookies bool) (*FlashManager, error) {
	// Create sessions table if it doesn't exist
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, err
	}

	sm := scs.New()
	sm.Store = sqlite3store.New(sqlDB)
	sm.Lifetime = time.Hour
	sm.Cookie.Name = "readspace_flash"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = secureCookies
	sm.Cookie.SameSite = nethttp.SameSiteLaxMode
	sm.Cookie.Path = "/"

	return &FlashManager{SessionManager: sm}, nil
}

// PutSuccess queues a success message for the next page render.
func (fm *FlashManager) PutSuccess(r *nethttp.Request, message string) {
	fm.Put(r.Context(), flashKeySuccess, message)
}

// PutError queues an error message for the next page render.
func (fm *FlashManager) PutError(r *nethttp.Request, message string) {
	fm.Put(r.Context(), flashKeyError, message)
}

// PutFormErrors queues validation messages for form redisplay.
func (fm *FlashManager) PutFormErrors(r *nethttp.Request, messages []string) {
	fm.Put(r.Context(), flashKeyFormErrors, messages)
}

// PutFormValues queues submitted field values for form redisplay. Password
// fields must never be included.
func (fm *FlashManager) PutFormValues(r *nethttp.Request, values map[string]string) {
	fm.Put(r.Context(), flashKeyFormValues, values)
}

// PopSuccess returns and clears the queued success message.
func (fm *FlashManager) PopSuccess(r *nethttp.Request) string {
	return fm.PopString(r.Context(), flashKeySuccess)
}

// PopError returns and clears the queued error message.
func (fm *FlashManager) PopError(r *nethttp.Request) string {
	return fm.PopString(r.Context(), flashKeyError)
}

// PopFormErrors returns and clears the queued validation messages.
func (fm *FlashManager) PopFormErrors(r *nethttp.Request) []string {
	messages, _ := fm.Pop(r.Context(), flashKeyFormErrors).([]string)
	return messages
}

// PopFormValues returns and clears the queued form values.
func (fm *FlashManager) PopFormValues(r *nethttp.Request) map[string]string {
	values, _ := fm.Pop(r.Context(), flashKeyFormValues).(map[string]string)
	if values == nil {
		values = map[string]string{}
	}
	return values
}

// flashResponseWriter intercepts WriteHeader so the session cookie is
// committed before headers go out.
type flashResponseWriter struct {
	gin.ResponseWriter
	fm            *FlashManager
	request       *nethttp.Request
	wroteHeader   bool
	cookieWritten bool
}

func (w *flashResponseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		w.writeSessionCookie()
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *flashResponseWriter) WriteHeaderNow() {
	if !w.wroteHeader {
		w.wroteHeader = true
		w.writeSessionCookie()
	}
	w.ResponseWriter.WriteHeaderNow()
}

func (w *flashResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.wroteHeader = true
		w.writeSessionCookie()
	}
	return w.ResponseWriter.Write(b)
}

func (w *flashResponseWriter) writeSessionCookie() {
	if w.cookieWritten {
		return
	}
	w.cookieWritten = true

	ctx := w.request.Context()
	switch w.fm.Status(ctx) {
	case scs.Modified:
		token, expiry, err := w.fm.Commit(ctx)
		if err != nil {
			return
		}
		w.fm.WriteSessionCookie(ctx, w.ResponseWriter, token, expiry)
	case scs.Destroyed:
		w.fm.WriteSessionCookie(ctx, w.ResponseWriter, "", time.Time{})
	}
}

func (w *flashResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return w.ResponseWriter.Hijack()
}

// LoadSave returns the Gin middleware that loads the flash session into the
// request context and commits it on the way out. Must run before any
// handler that touches flashes.
func (fm *FlashManager) LoadSave() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		if cookie, err := c.Request.Cookie(fm.Cookie.Name); err == nil {
			token = cookie.Value
		}

		ctx, err := fm.Load(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatus(nethttp.StatusInternalServerError)
			return
		}
		c.Request = c.Request.WithContext(ctx)

		srw := &flashResponseWriter{
			ResponseWriter: c.Writer,
			fm:             fm,
			request:        c.Request,
		}
		c.Writer = srw

		c.Next()

		if !srw.wroteHeader {
			srw.writeSessionCookie()
		}
	}
}
