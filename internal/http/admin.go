package http

import (
	"context"
	"errors"
	nethttp "net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/readspace/readspace/internal/collection"
	"github.com/readspace/readspace/internal/library"
	"github.com/readspace/readspace/internal/session"
)

// Admin dashboard tabs, one per managed collection.
const (
	TabBooks      = "books"
	TabCategories = "categories"
	TabAuthors    = "authors"
	TabPublishers = "publishers"
)

// AdminController serves the management dashboard: four collections, each
// with substring search and create/update/delete forms.
type AdminController struct {
	sessions *session.Handler
	flash    *FlashManager

	books      *collection.Controller[library.Book]
	categories *collection.Controller[library.Category]
	authors    *collection.Controller[library.Author]
	publishers *collection.Controller[library.Publisher]

	booksResource      *library.AdminResource[library.Book]
	categoriesResource *library.AdminResource[library.Category]
	authorsResource    *library.AdminResource[library.Author]
	publishersResource *library.AdminResource[library.Publisher]
}

func NewAdminController(client *library.Client, sessions *session.Handler, flash *FlashManager) *AdminController {
	ctrl := &AdminController{
		sessions:           sessions,
		flash:              flash,
		booksResource:      library.AdminBooks(client),
		categoriesResource: library.AdminCategories(client),
		authorsResource:    library.AdminAuthors(client),
		publishersResource: library.AdminPublishers(client),
	}
	// The fetch closures read the token at call time, so a re-login does not
	// require rebuilding the controllers.
	ctrl.books = collection.NewController("admin books", func(ctx context.Context) ([]library.Book, error) {
		return ctrl.booksResource.List(ctx, sessions.Token())
	})
	ctrl.categories = collection.NewController("admin categories", func(ctx context.Context) ([]library.Category, error) {
		return ctrl.categoriesResource.List(ctx, sessions.Token())
	})
	ctrl.authors = collection.NewController("admin authors", func(ctx context.Context) ([]library.Author, error) {
		return ctrl.authorsResource.List(ctx, sessions.Token())
	})
	ctrl.publishers = collection.NewController("admin publishers", func(ctx context.Context) ([]library.Publisher, error) {
		return ctrl.publishersResource.List(ctx, sessions.Token())
	})
	return ctrl
}

// loadAll fetches the four collections in parallel. Each load fails open:
// a broken collection renders empty with a notice while the others render
// normally. The returned error is non-nil only when the upstream rejected
// the token.
func (ctrl *AdminController) loadAll(ctx context.Context) ([]string, error) {
	var wg sync.WaitGroup
	names := [4]string{TabBooks, TabCategories, TabAuthors, TabPublishers}
	results := make([]error, 4)

	wg.Add(4)
	go func() { defer wg.Done(); results[0] = ctrl.books.Load(ctx).Err }()
	go func() { defer wg.Done(); results[1] = ctrl.categories.Load(ctx).Err }()
	go func() { defer wg.Done(); results[2] = ctrl.authors.Load(ctx).Err }()
	go func() { defer wg.Done(); results[3] = ctrl.publishers.Load(ctx).Err }()
	wg.Wait()

	var notices []string
	for i, err := range results {
		if errors.Is(err, library.ErrUnauthorized) {
			return nil, library.ErrUnauthorized
		}
		if err != nil {
			notices = append(notices, "Couldn't load "+names[i]+". Please try again.")
		}
	}
	return notices, nil
}

// Dashboard renders the admin dashboard for the selected tab.
func (ctrl *AdminController) Dashboard(c *gin.Context) {
	notices, err := ctrl.loadAll(c.Request.Context())
	if err != nil {
		expireSession(c, ctrl.sessions, ctrl.flash)
		return
	}

	tab := c.DefaultQuery("tab", TabBooks)
	switch tab {
	case TabBooks, TabCategories, TabAuthors, TabPublishers:
	default:
		tab = TabBooks
	}
	query := strings.TrimSpace(c.Query("q"))

	state := currentSession(c)
	c.HTML(nethttp.StatusOK, "admin.html", gin.H{
		"Title":      "Admin dashboard",
		"Username":   state.User.Username,
		"Tab":        tab,
		"Query":      query,
		"Books":      ctrl.books.Search(query),
		"Categories": ctrl.categories.Search(query),
		"Authors":    ctrl.authors.Search(query),
		"Publishers": ctrl.publishers.Search(query),
		"Stats": gin.H{
			"Books":      ctrl.books.Len(),
			"Categories": ctrl.categories.Len(),
			"Authors":    ctrl.authors.Len(),
			"Publishers": ctrl.publishers.Len(),
		},
		"LoadErrors": notices,
		"Success":    ctrl.flash.PopSuccess(c.Request),
		"Error":      ctrl.flash.PopError(c.Request),
		"FormErrors": ctrl.flash.PopFormErrors(c.Request),
		"CSRFToken":  GetCSRFToken(c),
	})
}

// Save handles the create/update form for one entity collection. A record
// with a zero identifier is created, anything else updated, and the
// collection reloaded so the page shows the server's state.
func (ctrl *AdminController) Save(c *gin.Context) {
	entity := c.Param("entity")
	ctx := c.Request.Context()

	var err error
	switch entity {
	case TabBooks:
		book := library.Book{
			IDBook:      formInt(c, "id_book"),
			Title:       strings.TrimSpace(c.PostForm("title")),
			Slug:        strings.TrimSpace(c.PostForm("slug")),
			Description: strings.TrimSpace(c.PostForm("description")),
			IDCategory:  formInt(c, "id_category"),
			IDAuthor:    formInt(c, "id_author"),
			IDPublisher: formInt(c, "id_publisher"),
		}
		err = ctrl.books.SaveThenReload(ctx, func(ctx context.Context) error {
			return ctrl.booksResource.Save(ctx, ctrl.sessions.Token(), book)
		})
	case TabCategories:
		category := library.Category{
			IDCategory:   formInt(c, "id_category"),
			CategoryName: strings.TrimSpace(c.PostForm("category_name")),
		}
		err = ctrl.categories.SaveThenReload(ctx, func(ctx context.Context) error {
			return ctrl.categoriesResource.Save(ctx, ctrl.sessions.Token(), category)
		})
	case TabAuthors:
		author := library.Author{
			IDAuthor:   formInt(c, "id_author"),
			AuthorName: strings.TrimSpace(c.PostForm("author_name")),
		}
		err = ctrl.authors.SaveThenReload(ctx, func(ctx context.Context) error {
			return ctrl.authorsResource.Save(ctx, ctrl.sessions.Token(), author)
		})
	case TabPublishers:
		publisher := library.Publisher{
			IDPublisher:   formInt(c, "id_publisher"),
			PublisherName: strings.TrimSpace(c.PostForm("publisher_name")),
		}
		err = ctrl.publishers.SaveThenReload(ctx, func(ctx context.Context) error {
			return ctrl.publishersResource.Save(ctx, ctrl.sessions.Token(), publisher)
		})
	default:
		c.Redirect(nethttp.StatusSeeOther, session.AdminDestination)
		return
	}

	target := session.AdminDestination + "?tab=" + entity
	if err != nil {
		if flashMutationError(c, ctrl.sessions, ctrl.flash, err, "saving "+entity) {
			return
		}
	} else {
		ctrl.flash.PutSuccess(c.Request, "Saved.")
	}
	c.Redirect(nethttp.StatusSeeOther, target)
}

// Delete removes one record and reloads its collection.
func (ctrl *AdminController) Delete(c *gin.Context) {
	entity := c.Param("entity")
	target := session.AdminDestination + "?tab=" + entity

	id, ok := parseIDParam(c, "id", session.AdminDestination)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var err error
	switch entity {
	case TabBooks:
		err = ctrl.books.SaveThenReload(ctx, func(ctx context.Context) error {
			return ctrl.booksResource.Delete(ctx, ctrl.sessions.Token(), id)
		})
	case TabCategories:
		err = ctrl.categories.SaveThenReload(ctx, func(ctx context.Context) error {
			return ctrl.categoriesResource.Delete(ctx, ctrl.sessions.Token(), id)
		})
	case TabAuthors:
		err = ctrl.authors.SaveThenReload(ctx, func(ctx context.Context) error {
			return ctrl.authorsResource.Delete(ctx, ctrl.sessions.Token(), id)
		})
	case TabPublishers:
		err = ctrl.publishers.SaveThenReload(ctx, func(ctx context.Context) error {
			return ctrl.publishersResource.Delete(ctx, ctrl.sessions.Token(), id)
		})
	default:
		c.Redirect(nethttp.StatusSeeOther, session.AdminDestination)
		return
	}

	if err != nil {
		if flashMutationError(c, ctrl.sessions, ctrl.flash, err, "deleting from "+entity) {
			return
		}
	} else {
		ctrl.flash.PutSuccess(c.Request, "Deleted.")
	}
	c.Redirect(nethttp.StatusSeeOther, target)
}

// formInt parses an optional integer form field, treating absent or
// malformed values as zero.
func formInt(c *gin.Context, field string) int {
	value, err := strconv.Atoi(c.PostForm(field))
	if err != nil {
		return 0
	}
	return value
}
