// Morfonica - Conversational Pixiv Browsing Service
// Copyright 2026 Roast-2007
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Roast-2007/morfonica

package browse

import (
	"testing"

	"github.com/Roast-2007/morfonica/internal/models"
)

func TestFilterPolicy(t *testing.T) {
	restricted := models.Illust{ID: 1, XRestrict: models.XRestrictR18}
	taggedAdult := models.Illust{ID: 2, Tags: []models.Tag{{Name: "R-18"}}}
	aiFlagged := models.Illust{ID: 3, IllustAIType: models.IllustAITypeGenerated}
	taggedAI := models.Illust{ID: 4, Tags: []models.Tag{{Name: "AI生成"}}}
	translatedAI := models.Illust{ID: 5, Tags: []models.Tag{{Name: "机械学习", TranslatedName: "AI-Generated"}}}
	clean := models.Illust{ID: 6, Tags: []models.Tag{{Name: "風景"}}}
	noTags := models.Illust{ID: 7}

	all := []models.Illust{restricted, taggedAdult, aiFlagged, taggedAI, translatedAI, clean, noTags}

	tests := []struct {
		name    string
		policy  Policy
		wantIDs []int64
	}{
		{
			name:    "default policy drops adult and ai",
			policy:  Policy{},
			wantIDs: []int64{6, 7},
		},
		{
			name:    "allow adult keeps restricted",
			policy:  Policy{AllowAdult: true},
			wantIDs: []int64{1, 2, 6, 7},
		},
		{
			name:    "allow ai keeps generated",
			policy:  Policy{AllowAI: true},
			wantIDs: []int64{3, 4, 5, 6, 7},
		},
		{
			name:    "allow everything keeps all",
			policy:  Policy{AllowAdult: true, AllowAI: true},
			wantIDs: []int64{1, 2, 3, 4, 5, 6, 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(all, tt.policy)
			checkIntEqual(t, "survivors", len(got), len(tt.wantIDs))
			for i := range got {
				if i < len(tt.wantIDs) {
					checkInt64Equal(t, "survivor id", got[i].ID, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	items := []models.Illust{
		{ID: 10},
		{ID: 20, XRestrict: models.XRestrictR18},
		{ID: 30},
		{ID: 40, IllustAIType: models.IllustAITypeGenerated},
		{ID: 50},
	}

	got := Filter(items, Policy{})
	want := []int64{10, 30, 50}
	checkIntEqual(t, "survivors", len(got), len(want))
	for i := range got {
		checkInt64Equal(t, "order", got[i].ID, want[i])
	}
}

func TestFilterEmptyInput(t *testing.T) {
	checkIntEqual(t, "nil input", len(Filter(nil, Policy{})), 0)
	checkIntEqual(t, "empty input", len(Filter([]models.Illust{}, Policy{})), 0)
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	items := []models.Illust{
		{ID: 1, XRestrict: models.XRestrictR18},
		{ID: 2},
	}

	_ = Filter(items, Policy{})
	checkInt64Equal(t, "input[0]", items[0].ID, 1)
	checkInt64Equal(t, "input[1]", items[1].ID, 2)
}
