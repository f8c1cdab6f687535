package handlers

import (
	"bufio"
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/apiclient"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/apitest"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/bus"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/mutation"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/resource"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/session"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/store"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/web"
)

type harness struct {
	t      *testing.T
	api    *apitest.Server
	app    *App
	srv    *httptest.Server
	client *http.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	api, baseURL := apitest.NewTestServer(t)

	st, err := store.NewStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate())

	client, err := apiclient.New(baseURL, apiclient.WithTimeout(5*time.Second))
	require.NoError(t, err)

	events := bus.New()
	cache := resource.NewCache(resource.WithBus(events))

	cookies := sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"))
	cookies.Options.Path = "/"
	cookies.Options.HttpOnly = true
	cookies.Options.Secure = false
	cookies.Options.SameSite = http.SameSiteLaxMode

	templates := NewTemplateCache()
	pages, err := fs.Sub(web.Templates, "templates")
	require.NoError(t, err)
	require.NoError(t, templates.Load(pages))

	images := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"secure_url":"https://images.example.com/uploaded.jpg"}`)
	}))
	t.Cleanup(images.Close)

	app := &App{
		API:           client,
		Cache:         cache,
		Bus:           events,
		Exec:          mutation.NewExecutor(cache, events),
		Sessions:      session.NewManager(cookies, st, events, time.Hour),
		Templates:     templates,
		Emails:        &apiclient.EmailPolicy{Mode: apiclient.EmailOff},
		Images:        apiclient.NewImageHost(images.URL, "test", 5*time.Second),
		ImageMaxWidth: 800,
		Heartbeat:     time.Hour,
	}
	srv := httptest.NewServer(app.Routes(nil))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &harness{
		t:   t,
		api: api,
		app: app,
		srv: srv,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (h *harness) get(path string) (*http.Response, string) {
	h.t.Helper()
	resp, err := h.client.Get(h.srv.URL + path)
	require.NoError(h.t, err)
	return resp, readBody(h.t, resp)
}

func (h *harness) post(path string, form url.Values) *http.Response {
	h.t.Helper()
	resp, err := h.client.PostForm(h.srv.URL+path, form)
	require.NoError(h.t, err)
	readBody(h.t, resp)
	return resp
}

func (h *harness) postBody(path string, form url.Values) (*http.Response, string) {
	h.t.Helper()
	resp, err := h.client.PostForm(h.srv.URL+path, form)
	require.NoError(h.t, err)
	return resp, readBody(h.t, resp)
}

func (h *harness) login(username, password string) {
	h.t.Helper()
	resp := h.post("/login", url.Values{"username": {username}, "password": {password}})
	require.Equal(h.t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(h.t, "/profile", resp.Header.Get("Location"))
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestHomeListsCatalogueAndCareTips(t *testing.T) {
	h := newHarness(t)

	resp, body := h.get("/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Red Rose Bouquet")
	assert.Contains(t, body, "White Lilies")
	assert.Contains(t, body, "Soak roots for 15 minutes weekly.")

	_, body = h.get("/?category=lilies")
	assert.Contains(t, body, "White Lilies")
	assert.NotContains(t, body, "Red Rose Bouquet")

	_, body = h.get("/?q=tulip")
	assert.Contains(t, body, "Tulip Mix")
	assert.NotContains(t, body, "White Lilies")

	// The catalogue is served from the cache after the first visit.
	assert.Equal(t, 1, h.api.Calls("GET", "/flower/flower_all/"))
}

func TestFlowerDetail(t *testing.T) {
	h := newHarness(t)

	resp, body := h.get("/flowers/1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Twelve long-stem red roses.")
	assert.Contains(t, body, "log in")
	assert.Zero(t, h.api.Calls("GET", "/flower/comment_show/:id/"))

	resp, body = h.get("/flowers/999")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Flower data not found!")

	resp, _ = h.get("/flowers/abc")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUnknownPathIsNotFound(t *testing.T) {
	h := newHarness(t)
	resp, body := h.get("/no/such/page")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Page not found")
}

func TestCartLoggedOutNeverCallsAPI(t *testing.T) {
	h := newHarness(t)

	resp, body := h.get("/cart")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "log in")
	assert.Zero(t, h.api.Calls("GET", "/flower/cart/"))

	resp = h.post("/cart", url.Values{"flower_id": {"1"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	_, body = h.get("/login")
	assert.Contains(t, body, "You need to log in first!")
	assert.Zero(t, h.api.Calls("POST", "/flower/cart/"))
}

func TestPruneDropsCachedDataOfExpiredUsers(t *testing.T) {
	h := newHarness(t)
	h.login(apitest.CustomerUsername, apitest.CustomerPassword)
	h.get("/cart")
	h.get("/")

	ctx := context.Background()
	rows, err := h.app.Sessions.Store.ListSessions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	s := session.Session{Token: rows[0].Token, UserID: rows[0].UserID, Username: rows[0].Username}
	require.Equal(t, resource.StatusReady, h.app.Cache.State(cartKey(s)))

	_, err = h.app.Sessions.Store.DB.Exec(`UPDATE sessions SET updated_at = ?`, time.Now().Add(-2*time.Hour).Unix())
	require.NoError(t, err)
	n, err := h.app.PruneSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, resource.StatusIdle, h.app.Cache.State(cartKey(s)))
	assert.Equal(t, resource.StatusReady, h.app.Cache.State(flowersKey), "shared data stays")
}

func TestLoginAndLogout(t *testing.T) {
	h := newHarness(t)
	h.login(apitest.CustomerUsername, apitest.CustomerPassword)

	_, body := h.get("/profile")
	assert.Contains(t, body, "Login Successfully!")
	assert.Contains(t, body, apitest.CustomerEmail)

	// Logged-in visitors skip the login form.
	resp, _ := h.get("/login")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/profile", resp.Header.Get("Location"))

	resp = h.post("/logout", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	_, body = h.get("/")
	assert.Contains(t, body, "Logged out successfully!")
	_, body = h.get("/cart")
	assert.Contains(t, body, "log in")
}

func TestLoginFailureKeepsUsername(t *testing.T) {
	h := newHarness(t)

	resp, body := h.postBody("/login", url.Values{"username": {apitest.CustomerUsername}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Invalid username or password.")
	assert.Contains(t, body, `value="`+apitest.CustomerUsername+`"`)
}

func TestAddAndRemoveFromCart(t *testing.T) {
	h := newHarness(t)
	h.login(apitest.CustomerUsername, apitest.CustomerPassword)

	_, body := h.get("/cart")
	assert.Contains(t, body, "Your cart is empty")

	resp := h.post("/cart", url.Values{"flower_id": {"1"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/cart", resp.Header.Get("Location"))

	_, body = h.get("/cart")
	assert.Contains(t, body, "Flower added to cart successfully!")
	assert.Contains(t, body, "Red Rose Bouquet")
	assert.Contains(t, body, "1200.00")

	user, err := h.api.Repo().Authenticate(apitest.CustomerUsername, apitest.CustomerPassword)
	require.NoError(t, err)
	lines := h.api.Repo().Cart(user.ID)
	require.Len(t, lines, 1)

	resp = h.post("/cart/"+strconv.FormatInt(lines[0].ID, 10)+"/remove", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/cart", resp.Header.Get("Location"))

	_, body = h.get("/cart")
	assert.Equal(t, 1, strings.Count(body, "Removed from cart!"))
	assert.Contains(t, body, "0 item(s). Total: $0.00")
	assert.NotContains(t, body, "Red Rose Bouquet")

	// The notice is shown once.
	_, body = h.get("/cart")
	assert.NotContains(t, body, "Removed from cart!")
}

func TestFailedMutationLeavesCacheAlone(t *testing.T) {
	h := newHarness(t)
	h.login(apitest.CustomerUsername, apitest.CustomerPassword)

	h.get("/cart")
	require.Equal(t, 1, h.api.Calls("GET", "/flower/cart/"))

	h.api.FailNext("DELETE", "/flower/cart_remove/:id/", http.StatusBadRequest, gin.H{"error": "Item not in cart."})
	resp := h.post("/cart/42/remove", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/cart", resp.Header.Get("Location"))

	_, body := h.get("/cart")
	assert.Contains(t, body, "Item not in cart.")
	assert.Equal(t, 1, h.api.Calls("GET", "/flower/cart/"), "cart should still be cached")
	assert.Equal(t, 1, h.api.Calls("DELETE", "/flower/cart_remove/:id/"), "mutations are not retried")
}

func TestPlaceOrderAndPay(t *testing.T) {
	h := newHarness(t)
	h.login(apitest.CustomerUsername, apitest.CustomerPassword)

	_, body := h.get("/orders")
	assert.Contains(t, body, "You have not ordered anything yet.")

	resp := h.post("/flowers/1/pay", nil)
	assert.Equal(t, "/flowers/1", resp.Header.Get("Location"))
	_, body = h.get("/flowers/1")
	assert.Contains(t, body, "You must order this flower before making a payment!")

	resp = h.post("/flowers/1/order", url.Values{"quantity": {"0"}})
	assert.Equal(t, "/flowers/1", resp.Header.Get("Location"))
	_, body = h.get("/flowers/1")
	assert.Contains(t, body, "Quantity must be at least 1.")

	resp = h.post("/flowers/1/order", url.Values{"quantity": {"2"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/orders", resp.Header.Get("Location"))

	_, body = h.get("/orders")
	assert.Contains(t, body, "Order placed successfully! Please Check Your Email.")
	assert.Contains(t, body, "Red Rose Bouquet")
	assert.Contains(t, body, "Pending")

	resp = h.post("/flowers/1/pay", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	location := resp.Header.Get("Location")
	assert.NotEmpty(t, location)
	assert.NotEqual(t, "/flowers/1", location)
}

func TestRejectedTokenEndsSession(t *testing.T) {
	h := newHarness(t)
	h.login(apitest.CustomerUsername, apitest.CustomerPassword)

	h.api.FailNext("GET", "/flower/cart/", http.StatusUnauthorized, gin.H{"detail": "Invalid token."})
	resp, _ := h.get("/cart")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	_, body := h.get("/login")
	assert.Contains(t, body, "Your session has expired. Please log in again.")

	_, body = h.get("/cart")
	assert.Contains(t, body, "log in")
	assert.Equal(t, 1, h.api.Calls("GET", "/flower/cart/"))
}

func TestForbiddenKeepsSession(t *testing.T) {
	h := newHarness(t)
	h.login(apitest.CustomerUsername, apitest.CustomerPassword)

	h.api.FailNext("GET", "/flower/cart/", http.StatusForbidden, gin.H{"detail": "You do not have permission to perform this action."})
	resp, body := h.get("/cart")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "You do not have permission to perform this action.")

	resp, body = h.get("/profile")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, apitest.CustomerEmail)
}

func TestFailedProfileUpdateKeepsData(t *testing.T) {
	h := newHarness(t)
	h.login(apitest.CustomerUsername, apitest.CustomerPassword)

	h.api.FailNext("PUT", "/user/user_detail/:id/", http.StatusBadRequest, gin.H{"error": "Username already taken."})
	resp, body := h.postBody("/profile", url.Values{
		"username":   {"taken-name"},
		"first_name": {"Rose"},
		"last_name":  {"Bloom"},
		"email":      {apitest.CustomerEmail},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Username already taken.")
	assert.Contains(t, body, `value="taken-name"`)
	assert.Contains(t, body, "@"+apitest.CustomerUsername)

	// Session is untouched.
	_, body = h.get("/profile")
	assert.Contains(t, body, "@"+apitest.CustomerUsername)
}

func TestProfileRenameUpdatesSession(t *testing.T) {
	h := newHarness(t)
	h.login(apitest.CustomerUsername, apitest.CustomerPassword)

	resp := h.post("/profile", url.Values{
		"username":   {"rosa"},
		"first_name": {"Rosa"},
		"last_name":  {"Bloom"},
		"email":      {apitest.CustomerEmail},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/profile", resp.Header.Get("Location"))

	_, body := h.get("/profile")
	assert.Contains(t, body, "Profile updated successfully!")
	assert.Contains(t, body, "@rosa")
	assert.Contains(t, body, `href="/profile">rosa</a>`)
}

func TestAdminPagesNeedAdmin(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.get("/admin")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	h.login(apitest.CustomerUsername, apitest.CustomerPassword)
	resp, _ = h.get("/admin")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	_, body := h.get("/")
	assert.Contains(t, body, "Only admins can access this page.")
	assert.Zero(t, h.api.Calls("GET", "/order/all_order/"))

	h.post("/logout", nil)
	h.login(apitest.AdminUsername, apitest.AdminPassword)
	resp, body = h.get("/admin")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "All orders")

	resp, body = h.get("/admin/users")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, apitest.CustomerEmail)
}

func TestAdminFlowerLifecycle(t *testing.T) {
	h := newHarness(t)
	h.login(apitest.AdminUsername, apitest.AdminPassword)

	_, body := h.get("/")
	assert.Contains(t, body, "Red Rose Bouquet")

	resp, body := postMultipart(t, h, "/admin/flowers", map[string]string{
		"title": "Sunflowers", "description": "Bright.", "price": "abc", "stock": "3", "category": "Seasonal Flowers",
	}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Invalid price format.")
	assert.Contains(t, body, `value="Sunflowers"`)

	resp, _ = postMultipart(t, h, "/admin/flowers", map[string]string{
		"title": "Sunflowers", "description": "Bright.", "price": "300", "stock": "3", "category": "Seasonal Flowers",
	}, "sunflowers.png")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/flowers", resp.Header.Get("Location"))

	// The new flower shows up on the already cached home page.
	_, body = h.get("/")
	assert.Contains(t, body, "Sunflowers")

	resp = h.post("/admin/flowers/1/delete", nil)
	assert.Equal(t, "/admin/flowers", resp.Header.Get("Location"))
	_, body = h.get("/admin/flowers")
	assert.Contains(t, body, "Flower deleted successfully!")
	assert.NotContains(t, body, "Red Rose Bouquet")
}

func TestRegisterUploadsProfileImage(t *testing.T) {
	h := newHarness(t)

	fields := map[string]string{
		"username": "lily", "email": "lily@example.com", "first_name": "Lily", "last_name": "Pad",
		"password": "lily-pass-123", "confirm_password": "lily-pass-123",
	}
	resp, body := postMultipart(t, h, "/register", fields, "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Please upload a profile image.")
	assert.Contains(t, body, `value="lily@example.com"`)

	resp, _ = postMultipartField(t, h, "/register", fields, "profile_img", "me.png")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/otp?email=lily%40example.com", resp.Header.Get("Location"))

	otp := h.api.Repo().OTP("lily@example.com")
	require.NotEmpty(t, otp)
	resp = h.post("/otp", url.Values{"email": {"lily@example.com"}, "otp": {otp}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	h.login("lily", "lily-pass-123")
}

func TestEventsStreamCartChanges(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.get("/events?page=cart")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	h.login(apitest.CustomerUsername, apitest.CustomerPassword)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.srv.URL+"/events?page=cart", nil)
	require.NoError(t, err)
	stream, err := h.client.Do(req)
	require.NoError(t, err)
	defer stream.Body.Close()
	require.Equal(t, http.StatusOK, stream.StatusCode)
	assert.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))

	events := bufio.NewReader(stream.Body)
	first := nextRender(t, events)
	assert.Contains(t, first, "Your cart is empty")

	h.post("/cart", url.Values{"flower_id": {"1"}})

	var section string
	for range 5 {
		section = nextRender(t, events)
		if strings.Contains(section, "Red Rose Bouquet") {
			break
		}
	}
	assert.Contains(t, section, "Red Rose Bouquet")

	// Logging out elsewhere flips the open page to its logged-out state.
	h.post("/logout", nil)
	for range 5 {
		section = nextRender(t, events)
		if strings.Contains(section, "log in") {
			break
		}
	}
	assert.Contains(t, section, "log in")
	assert.NotContains(t, section, "Red Rose Bouquet")
}

func TestEventsStreamOrderPlacedElsewhere(t *testing.T) {
	h := newHarness(t)
	h.login(apitest.CustomerUsername, apitest.CustomerPassword)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.srv.URL+"/events?page=orders", nil)
	require.NoError(t, err)
	stream, err := h.client.Do(req)
	require.NoError(t, err)
	defer stream.Body.Close()
	require.Equal(t, http.StatusOK, stream.StatusCode)

	events := bufio.NewReader(stream.Body)
	assert.Contains(t, nextRender(t, events), "You have not ordered anything yet.")

	// The order is written behind the page's back, so only the notification
	// can make the open history reload.
	login, err := h.app.API.Login(ctx, apitest.CustomerUsername, apitest.CustomerPassword)
	require.NoError(t, err)
	s := login.Session()
	require.NoError(t, h.app.API.CreateOrder(ctx, s, 1, 1))
	h.app.Bus.Publish(bus.Event{Topic: bus.TopicOrderPlaced, Scope: s.Scope()})

	var section string
	for range 5 {
		section = nextRender(t, events)
		if strings.Contains(section, "Red Rose Bouquet") {
			break
		}
	}
	assert.Contains(t, section, "Red Rose Bouquet")
	assert.NotContains(t, section, "You have not ordered anything yet.")
}

func TestEventsRejectsUnknownPage(t *testing.T) {
	h := newHarness(t)
	h.login(apitest.CustomerUsername, apitest.CustomerPassword)

	resp, _ := h.get("/events?page=admin")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// nextRender reads the next "render" event and returns its joined data lines.
func nextRender(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	var b strings.Builder
	inRender := false
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSuffix(line, "\n")
		switch {
		case line == "event: render":
			inRender = true
		case inRender && strings.HasPrefix(line, "data: "):
			b.WriteString(strings.TrimPrefix(line, "data: "))
			b.WriteByte('\n')
		case inRender && line == "":
			return b.String()
		}
	}
}

func postMultipart(t *testing.T, h *harness, path string, fields map[string]string, filename string) (*http.Response, string) {
	return postMultipartField(t, h, path, fields, "image", filename)
}

func postMultipartField(t *testing.T, h *harness, path string, fields map[string]string, field, filename string) (*http.Response, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		part, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		require.NoError(t, png.Encode(part, testImage()))
	}
	require.NoError(t, mw.Close())

	resp, err := h.client.Post(h.srv.URL+path, mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		for y := 0; y < 20; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 60, A: 255})
		}
	}
	return img
}
