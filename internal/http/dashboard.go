package http

import (
	"context"
	"errors"
	nethttp "net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/readspace/readspace/internal/collection"
	"github.com/readspace/readspace/internal/library"
	"github.com/readspace/readspace/internal/session"
)

// Reader dashboard tabs.
const (
	TabBrowse    = "browse"
	TabPopular   = "popular"
	TabFavorites = "favorites"
	TabHistory   = "history"
	TabProfile   = "profile"
)

// DashboardController serves the reader dashboard: browse and search the
// catalogue, popular titles, favorites, reading history and the profile.
type DashboardController struct {
	client   *library.Client
	sessions *session.Handler
	flash    *FlashManager

	books     *collection.Controller[library.Book]
	popular   *collection.Controller[library.Book]
	favorites *collection.Controller[library.Book]
	history   *collection.Controller[library.HistoryEntry]
}

func NewDashboardController(client *library.Client, sessions *session.Handler, flash *FlashManager) *DashboardController {
	ctrl := &DashboardController{client: client, sessions: sessions, flash: flash}
	ctrl.books = collection.NewController("books", func(ctx context.Context) ([]library.Book, error) {
		return client.Books(ctx, sessions.Token())
	})
	ctrl.popular = collection.NewController("popular books", func(ctx context.Context) ([]library.Book, error) {
		return client.PopularBooks(ctx, sessions.Token())
	})
	ctrl.favorites = collection.NewController("favorites", func(ctx context.Context) ([]library.Book, error) {
		return client.Favorites(ctx, sessions.Token())
	})
	ctrl.history = collection.NewController("history", func(ctx context.Context) ([]library.HistoryEntry, error) {
		return client.History(ctx, sessions.Token())
	})
	return ctrl
}

// loadAll fetches the four collections and the profile in parallel. Only a
// rejected token is reported; anything else fails open with a per-collection
// notice.
func (ctrl *DashboardController) loadAll(ctx context.Context) (*library.Profile, []string, error) {
	var wg sync.WaitGroup
	names := [5]string{"the catalogue", "popular books", "your favorites", "your reading history", "your profile"}
	results := make([]error, 5)
	var profile *library.Profile

	wg.Add(5)
	go func() { defer wg.Done(); results[0] = ctrl.books.Load(ctx).Err }()
	go func() { defer wg.Done(); results[1] = ctrl.popular.Load(ctx).Err }()
	go func() { defer wg.Done(); results[2] = ctrl.favorites.Load(ctx).Err }()
	go func() { defer wg.Done(); results[3] = ctrl.history.Load(ctx).Err }()
	go func() {
		defer wg.Done()
		profile, results[4] = ctrl.client.GetProfile(ctx, ctrl.sessions.Token())
	}()
	wg.Wait()

	var notices []string
	for i, err := range results {
		if errors.Is(err, library.ErrUnauthorized) {
			return nil, nil, library.ErrUnauthorized
		}
		if err != nil {
			notices = append(notices, "Couldn't load "+names[i]+". Please try again.")
		}
	}
	return profile, notices, nil
}

// Dashboard renders the reader dashboard for the selected tab.
func (ctrl *DashboardController) Dashboard(c *gin.Context) {
	profile, notices, err := ctrl.loadAll(c.Request.Context())
	if err != nil {
		expireSession(c, ctrl.sessions, ctrl.flash)
		return
	}

	tab := c.DefaultQuery("tab", TabBrowse)
	switch tab {
	case TabBrowse, TabPopular, TabFavorites, TabHistory, TabProfile:
	default:
		tab = TabBrowse
	}
	query := strings.TrimSpace(c.Query("q"))
	categoryID, _ := strconv.Atoi(c.Query("category"))

	books := filterByCategory(ctrl.books.Search(query), categoryID)

	state := currentSession(c)
	if profile == nil {
		// Profile load failed open; fall back to the stored account record.
		profile = &library.Profile{Username: state.User.Username, Email: state.User.Email}
	}

	c.HTML(nethttp.StatusOK, "dashboard.html", gin.H{
		"Title":        "My library",
		"Username":     state.User.Username,
		"Tab":          tab,
		"Query":        query,
		"CategoryID":   categoryID,
		"Books":        books,
		"Popular":      ctrl.popular.Snapshot(),
		"Favorites":    ctrl.favorites.Snapshot(),
		"History":      ctrl.history.Snapshot(),
		"Profile":      profile,
		"Categories":   categoriesOf(ctrl.books.Snapshot()),
		"FavoritedIDs": favoritedIDs(ctrl.favorites.Snapshot()),
		"LoadErrors":   notices,
		"Success":      ctrl.flash.PopSuccess(c.Request),
		"Error":        ctrl.flash.PopError(c.Request),
		"FormErrors":   ctrl.flash.PopFormErrors(c.Request),
		"CSRFToken":    GetCSRFToken(c),
	})
}

// Favorite toggles the favorite state of one book, then refetches the
// favorites so the heart state reflects the server.
func (ctrl *DashboardController) Favorite(c *gin.Context) {
	id, ok := parseIDParam(c, "id", session.ReaderDestination)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	err := ctrl.favorites.SaveThenReload(ctx, func(ctx context.Context) error {
		return ctrl.client.ToggleFavorite(ctx, ctrl.sessions.Token(), id)
	})
	if err != nil {
		if flashMutationError(c, ctrl.sessions, ctrl.flash, err, "toggling favorite") {
			return
		}
	}
	redirectBack(c, session.ReaderDestination)
}

// Rate submits a rating for one book. No collection is refetched here; the
// redirected page render picks up the new counts on its own load.
func (ctrl *DashboardController) Rate(c *gin.Context) {
	id, ok := parseIDParam(c, "id", session.ReaderDestination)
	if !ok {
		return
	}
	rating, err := strconv.Atoi(c.PostForm("rating"))
	if err != nil {
		ctrl.flash.PutError(c.Request, "Pick a rating between 1 and 5.")
		redirectBack(c, session.ReaderDestination)
		return
	}

	err = ctrl.client.RateBook(c.Request.Context(), ctrl.sessions.Token(), id, rating)
	if err != nil {
		if flashMutationError(c, ctrl.sessions, ctrl.flash, err, "rating book") {
			return
		}
	} else {
		ctrl.flash.PutSuccess(c.Request, "Thanks for rating!")
	}
	redirectBack(c, session.ReaderDestination)
}

// filterByCategory keeps the books in the given category; zero means all.
func filterByCategory(books []library.Book, categoryID int) []library.Book {
	if categoryID == 0 {
		return books
	}
	out := []library.Book{}
	for _, book := range books {
		if book.IDCategory == categoryID {
			out = append(out, book)
		}
	}
	return out
}

// categoriesOf derives the category selector options from the categories
// embedded in the loaded books. The reader surface has no category
// endpoint of its own.
func categoriesOf(books []library.Book) []library.Category {
	seen := make(map[int]library.Category)
	for _, book := range books {
		if book.Category != nil {
			seen[book.Category.IDCategory] = *book.Category
		}
	}
	out := make([]library.Category, 0, len(seen))
	for _, category := range seen {
		out = append(out, category)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CategoryName < out[j].CategoryName
	})
	return out
}

// favoritedIDs builds the membership set that drives the heart toggles.
func favoritedIDs(favorites []library.Book) map[int]bool {
	ids := make(map[int]bool, len(favorites))
	for _, book := range favorites {
		ids[book.IDBook] = true
	}
	return ids
}
