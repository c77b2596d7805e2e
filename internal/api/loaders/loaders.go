package loaders

import (
	"context"
	"fmt"
	"net/http"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
	"github.com/civicpulse/reporter/backend/internal/domain/repositories"
)

type ctxKey string

const loadersKey ctxKey = "dataloaders"

// Loaders batches lookups made while rendering one response
type Loaders struct {
	UserLoader *dataloader.Loader[string, *entities.User]
}

// NewLoaders creates a new instance of Loaders
func NewLoaders(userRepo repositories.UserRepository) *Loaders {
	return &Loaders{
		UserLoader: dataloader.NewBatchedLoader(func(ctx context.Context, keys []string) []*dataloader.Result[*entities.User] {
			results := make([]*dataloader.Result[*entities.User], len(keys))
			users, err := userRepo.GetByIDs(ctx, keys)

			userMap := make(map[string]*entities.User)
			if err == nil {
				for _, u := range users {
					userMap[u.ID] = u
				}
			}

			for i, key := range keys {
				if err != nil {
					results[i] = &dataloader.Result[*entities.User]{Error: err}
				} else if u, ok := userMap[key]; ok {
					results[i] = &dataloader.Result[*entities.User]{Data: u.Public()}
				} else {
					results[i] = &dataloader.Result[*entities.User]{Error: fmt.Errorf("user %s not found", key)}
				}
			}
			return results
		}),
	}
}

// For returns the loaders for a given context, or nil
func For(ctx context.Context) *Loaders {
	l, _ := ctx.Value(loadersKey).(*Loaders)
	return l
}

// WithLoaders returns a new context with the loaders attached
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}

// Middleware gives every request its own loaders so cached users never
// outlive the request
func Middleware(userRepo repositories.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithLoaders(r.Context(), NewLoaders(userRepo))))
		})
	}
}

// UserNames resolves display names for ids in one batch. Unknown users are
// left out of the result.
func UserNames(ctx context.Context, ids []string) map[string]string {
	names := make(map[string]string, len(ids))
	l := For(ctx)
	if l == nil || len(ids) == 0 {
		return names
	}

	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id != "" && !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	users, _ := l.UserLoader.LoadMany(ctx, unique)()
	for i, user := range users {
		if user != nil && i < len(unique) {
			names[unique[i]] = user.Name
		}
	}
	return names
}
