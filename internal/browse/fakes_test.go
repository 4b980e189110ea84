// Morfonica - Conversational Pixiv Browsing Service
// Copyright 2026 Roast-2007
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Roast-2007/morfonica

package browse

import (
	"context"
	"time"

	"github.com/Roast-2007/morfonica/internal/delivery"
	"github.com/Roast-2007/morfonica/internal/favorites"
	"github.com/Roast-2007/morfonica/internal/models"
	"github.com/Roast-2007/morfonica/internal/pixiv"
)

// fakeAPI serves scripted pages per endpoint and records the offsets it
// was called with.
type fakeAPI struct {
	searchPages      []*pixiv.Page
	rankingPages     []*pixiv.Page
	recommendedPages []*pixiv.Page
	userPage         *pixiv.Page
	details          map[int64]*models.Illust
	detailErrs       map[int64]error
	err              error

	searchOffsets      []int
	rankingOffsets     []int
	recommendedOffsets []int
	userCalls          int
	detailCalls        int
}

var _ pixiv.API = (*fakeAPI)(nil)

func (f *fakeAPI) Authenticate(context.Context) error { return f.err }

func (f *fakeAPI) SearchIllusts(_ context.Context, _ pixiv.SearchParams, offset int) (*pixiv.Page, error) {
	f.searchOffsets = append(f.searchOffsets, offset)
	if f.err != nil {
		return nil, f.err
	}
	return popPage(&f.searchPages), nil
}

func (f *fakeAPI) Ranking(_ context.Context, _ pixiv.RankingMode, offset int) (*pixiv.Page, error) {
	f.rankingOffsets = append(f.rankingOffsets, offset)
	if f.err != nil {
		return nil, f.err
	}
	return popPage(&f.rankingPages), nil
}

func (f *fakeAPI) Recommended(_ context.Context, offset int) (*pixiv.Page, error) {
	f.recommendedOffsets = append(f.recommendedOffsets, offset)
	if f.err != nil {
		return nil, f.err
	}
	return popPage(&f.recommendedPages), nil
}

func (f *fakeAPI) UserIllusts(context.Context, int64, int) (*pixiv.Page, error) {
	f.userCalls++
	if f.err != nil {
		return nil, f.err
	}
	if f.userPage == nil {
		return &pixiv.Page{}, nil
	}
	return f.userPage, nil
}

func (f *fakeAPI) IllustDetail(_ context.Context, id int64) (*models.Illust, error) {
	f.detailCalls++
	if err, ok := f.detailErrs[id]; ok {
		return nil, err
	}
	if illust, ok := f.details[id]; ok {
		return illust, nil
	}
	return nil, pixiv.ErrNotFound
}

func (f *fakeAPI) listCalls() int {
	return len(f.searchOffsets) + len(f.rankingOffsets) + len(f.recommendedOffsets) + f.userCalls
}

func popPage(pages *[]*pixiv.Page) *pixiv.Page {
	if len(*pages) == 0 {
		return &pixiv.Page{}
	}
	page := (*pages)[0]
	*pages = (*pages)[1:]
	return page
}

// fakeSender records deliveries and optionally fails at one send.
type fakeSender struct {
	sent   []sentMessage
	failAt int // 1-based index of the send that fails; 0 = never
}

type sentMessage struct {
	userKey string
	parts   []delivery.Part
}

var _ delivery.Sender = (*fakeSender)(nil)

func (f *fakeSender) Send(_ context.Context, userKey string, parts []delivery.Part) error {
	if f.failAt > 0 && len(f.sent)+1 == f.failAt {
		return &delivery.Error{Err: context.DeadlineExceeded}
	}
	f.sent = append(f.sent, sentMessage{userKey: userKey, parts: parts})
	return nil
}

// fakeFavStore is an in-memory favorites store, most recent first.
type fakeFavStore struct {
	records []models.Favorite
	listErr error
	creates int
}

var _ favorites.Store = (*fakeFavStore)(nil)

func (f *fakeFavStore) List(_ context.Context, userKey string) ([]models.Favorite, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Favorite
	for _, rec := range f.records {
		if rec.UserKey == userKey {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeFavStore) Exists(_ context.Context, userKey string, illustID int64) (bool, error) {
	for _, rec := range f.records {
		if rec.UserKey == userKey && rec.IllustID == illustID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeFavStore) Create(_ context.Context, userKey string, illustID int64, createdAt time.Time) error {
	f.creates++
	f.records = append([]models.Favorite{{
		UserKey:   userKey,
		IllustID:  illustID,
		CreatedAt: createdAt,
	}}, f.records...)
	return nil
}

// illusts builds a batch of plain illustrations with the given ids.
func illusts(ids ...int64) []models.Illust {
	out := make([]models.Illust, len(ids))
	for i, id := range ids {
		out[i] = models.Illust{
			ID:    id,
			Title: "work",
			User:  models.User{ID: 1, Name: "artist"},
			ImageURLs: models.ImageURLs{
				Medium: "https://i.example/m.jpg",
			},
		}
	}
	return out
}

func resultIDs(result *Result) []int64 {
	ids := make([]int64, len(result.Items))
	for i := range result.Items {
		ids[i] = result.Items[i].ID
	}
	return ids
}
