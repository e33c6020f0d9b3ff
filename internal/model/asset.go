package model

import (
	"sort"
	"time"
)

// Owner types. Each entity kind has one direct-reference role and, for
// kinds that carry rich text, one content role.
const (
	OwnerArticleThumbnail = "ARTICLE_THUMBNAIL"
	OwnerArticleContent   = "ARTICLE_CONTENT"
	OwnerSlide            = "SLIDE"
	OwnerPartner          = "PARTNER"
	OwnerQuickAccess      = "QUICK_ACCESS"
)

// Entity kinds double as the top-level storage folder of their owners.
const (
	KindArticle     = "articles"
	KindSlide       = "slides"
	KindPartner     = "partners"
	KindQuickAccess = "quick_access"
)

// Asset states derived from the owner columns and the storage key.
const (
	AssetStaged   = "staged"
	AssetOwned    = "owned"
	AssetOrphaned = "orphaned"
)

type Asset struct {
	ID           int64     `db:"id" json:"id"`
	StorageKey   string    `db:"storage_key" json:"storageKey"` // Relative to the storage root
	PublicURL    string    `db:"public_url" json:"url"`
	OriginalName string    `db:"original_name" json:"originalName"`
	MimeType     string    `db:"mime_type" json:"mimeType"`
	Size         int64     `db:"size" json:"size"`
	OwnerID      *int64    `db:"owner_id" json:"ownerId"`     // nil together with OwnerType
	OwnerType    *string   `db:"owner_type" json:"ownerType"` // nil together with OwnerID
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Owned reports whether the asset currently has an owning record.
func (a *Asset) Owned() bool {
	return a.OwnerID != nil && a.OwnerType != nil
}

// OwnedBy reports whether the asset belongs to exactly (ownerID, ownerType).
func (a *Asset) OwnedBy(ownerID int64, ownerType string) bool {
	return a.Owned() && *a.OwnerID == ownerID && *a.OwnerType == ownerType
}

// State classifies the asset. stagingFolder is the folder uploads land in
// before their first promotion.
func (a *Asset) State(stagingFolder string) string {
	if a.Owned() {
		return AssetOwned
	}
	if len(a.StorageKey) > len(stagingFolder) && a.StorageKey[:len(stagingFolder)+1] == stagingFolder+"/" {
		return AssetStaged
	}
	return AssetOrphaned
}

// OwnerRole describes where an owner type stores its assets.
type OwnerRole struct {
	Type    string
	Kind    string
	Content bool // many-per-owner role driven by rich-text references
}

var ownerRoles = map[string]OwnerRole{
	OwnerArticleThumbnail: {Type: OwnerArticleThumbnail, Kind: KindArticle},
	OwnerArticleContent:   {Type: OwnerArticleContent, Kind: KindArticle, Content: true},
	OwnerSlide:            {Type: OwnerSlide, Kind: KindSlide},
	OwnerPartner:          {Type: OwnerPartner, Kind: KindPartner},
	OwnerQuickAccess:      {Type: OwnerQuickAccess, Kind: KindQuickAccess},
}

// Role looks up the role of an owner type.
func Role(ownerType string) (OwnerRole, bool) {
	role, ok := ownerRoles[ownerType]
	return role, ok
}

// RolesOfKind returns every owner type stored under the given entity kind.
func RolesOfKind(kind string) []string {
	var types []string
	for t, role := range ownerRoles {
		if role.Kind == kind {
			types = append(types, t)
		}
	}
	sort.Strings(types)
	return types
}
