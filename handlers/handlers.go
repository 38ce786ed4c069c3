package handlers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"lootlook/broadcast"
	"lootlook/middleware"
	"lootlook/models"
	"lootlook/repository"
	"lootlook/scraper"
)

// extractFailedMessage is the user-facing text for any extraction
// failure; the real cause only goes to the logs.
const extractFailedMessage = "Could not read this page. Check the link and try again."

const defaultRetentionDays = 90

type Handlers struct {
	userRepo  *repository.UserRepository
	itemRepo  *repository.ItemRepository
	priceRepo *repository.PriceRepository
	scraper   *scraper.Scraper
	hub       *broadcast.Hub
	jwtSecret string
}

func NewHandlers(userRepo *repository.UserRepository, itemRepo *repository.ItemRepository, priceRepo *repository.PriceRepository, sc *scraper.Scraper, hub *broadcast.Hub, jwtSecret string) *Handlers {
	return &Handlers{
		userRepo:  userRepo,
		itemRepo:  itemRepo,
		priceRepo: priceRepo,
		scraper:   sc,
		hub:       hub,
		jwtSecret: jwtSecret,
	}
}

// Register creates an account and returns a token
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "username, password and name are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	user, err := h.userRepo.CreateUser(req.Username, string(hash), req.Name, req.Gender, req.Age)
	if err != nil {
		log.Printf("failed to create user %q: %v", req.Username, err)
		writeError(w, http.StatusConflict, "Username already taken")
		return
	}

	token, err := middleware.GenerateToken(h.jwtSecret, user.ID, user.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// Login authenticates and returns a token
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.userRepo.GetUserByUsername(req.Username)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, err := middleware.GenerateToken(h.jwtSecret, user.ID, user.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	user.Password = ""
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// ListUsers returns share targets for the authenticated user
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserFromContext(r.Context())

	users, err := h.userRepo.ListUsers(userID)
	if err != nil {
		log.Printf("failed to list users: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// AddItem scrapes a URL and starts tracking it for the user
func (h *Handlers) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserFromContext(r.Context())

	var req models.AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	retention := req.Retention
	if retention <= 0 {
		retention = defaultRetentionDays
	}

	cleaned := CleanURL(req.URL)
	snapshot, err := h.scraper.Extract(cleaned)
	if err != nil {
		log.Printf("extraction failed for %s: %v", cleaned, err)
		writeError(w, http.StatusUnprocessableEntity, extractFailedMessage)
		return
	}

	item, err := h.itemRepo.AddItem(userID, cleaned, snapshot, retention)
	if err != nil {
		log.Printf("failed to store item: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to save item")
		return
	}

	if err := h.priceRepo.AddPricePoint(item.ID, snapshot.Price); err != nil {
		log.Printf("failed to record initial price: %v", err)
	}

	h.hub.Broadcast(broadcast.RefreshSignal)
	writeJSON(w, http.StatusCreated, item)
}

// GetItems returns the user's live items with share annotations
func (h *Handlers) GetItems(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserFromContext(r.Context())

	items, err := h.itemRepo.GetItemsByUser(userID, false)
	if err != nil {
		log.Printf("failed to get items: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to get items")
		return
	}

	for i := range items {
		if items[i].IsSharedCopy() {
			continue
		}
		refs, err := h.itemRepo.GetSharedCopies(items[i].ID)
		if err != nil {
			log.Printf("failed to get shared copies for item %d: %v", items[i].ID, err)
			continue
		}
		items[i].SharedWith = refs
	}

	writeJSON(w, http.StatusOK, items)
}

// UpdateItem changes the tracked URL or retention window of an item
func (h *Handlers) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserFromContext(r.Context())
	id, err := itemID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	var req models.UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	retention := req.Retention
	if retention <= 0 {
		retention = defaultRetentionDays
	}

	if err := h.itemRepo.UpdateItem(id, userID, CleanURL(req.URL), retention); err != nil {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}

	updated, err := h.itemRepo.GetItemByID(id, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload item")
		return
	}

	h.hub.Broadcast(broadcast.RefreshSignal)
	writeJSON(w, http.StatusOK, updated)
}

// GetDeletedItems returns the user's soft-deleted items
func (h *Handlers) GetDeletedItems(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserFromContext(r.Context())

	items, err := h.itemRepo.GetItemsByUser(userID, true)
	if err != nil {
		log.Printf("failed to get deleted items: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to get items")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// DeleteItem soft-deletes an item
func (h *Handlers) DeleteItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserFromContext(r.Context())
	id, err := itemID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	if err := h.itemRepo.SetDeleted(id, userID, true); err != nil {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}

	h.hub.Broadcast(broadcast.RefreshSignal)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Item deleted"})
}

// RestoreItem brings a soft-deleted item back
func (h *Handlers) RestoreItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserFromContext(r.Context())
	id, err := itemID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	if err := h.itemRepo.SetDeleted(id, userID, false); err != nil {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}

	h.hub.Broadcast(broadcast.RefreshSignal)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Item restored"})
}

// RefreshItem re-runs extraction for one item on demand
func (h *Handlers) RefreshItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserFromContext(r.Context())
	id, err := itemID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	item, err := h.itemRepo.GetItemByID(id, userID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}

	snapshot, err := h.scraper.Extract(item.URL)
	if err != nil {
		log.Printf("refresh failed for item %d (%s): %v", item.ID, item.URL, err)
		if markErr := h.itemRepo.MarkChecked(item.ID); markErr != nil {
			log.Printf("failed to mark item checked: %v", markErr)
		}
		writeError(w, http.StatusUnprocessableEntity, extractFailedMessage)
		return
	}

	if err := h.itemRepo.UpdateItemPrice(item.ID, snapshot); err != nil {
		log.Printf("failed to update item %d: %v", item.ID, err)
		writeError(w, http.StatusInternalServerError, "Failed to update item")
		return
	}
	if snapshot.Price != item.CurrentPrice {
		if err := h.priceRepo.AddPricePoint(item.ID, snapshot.Price); err != nil {
			log.Printf("failed to record price point: %v", err)
		}
	}

	updated, err := h.itemRepo.GetItemByID(id, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload item")
		return
	}

	h.hub.Broadcast(broadcast.RefreshSignal)
	writeJSON(w, http.StatusOK, updated)
}

// GetPriceHistory returns an item's recorded price points
func (h *Handlers) GetPriceHistory(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserFromContext(r.Context())
	id, err := itemID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	if _, err := h.itemRepo.GetItemByID(id, userID); err != nil {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}

	history, err := h.priceRepo.GetHistory(id)
	if err != nil {
		log.Printf("failed to get price history: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to get price history")
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// ShareItem copies one of the user's items to another user
func (h *Handlers) ShareItem(w http.ResponseWriter, r *http.Request) {
	userID, username := middleware.UserFromContext(r.Context())

	var req models.ShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TargetUserID == userID {
		writeError(w, http.StatusBadRequest, "Cannot share an item with yourself")
		return
	}

	item, err := h.itemRepo.GetItemByID(req.ItemID, userID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}
	if item.IsSharedCopy() {
		writeError(w, http.StatusBadRequest, "Shared copies cannot be re-shared")
		return
	}
	if _, err := h.userRepo.GetUserByID(req.TargetUserID); err != nil {
		writeError(w, http.StatusNotFound, "Target user not found")
		return
	}

	exists, err := h.itemRepo.HasSharedCopy(item.ID, req.TargetUserID)
	if err != nil {
		log.Printf("failed to check existing share for item %d: %v", item.ID, err)
		writeError(w, http.StatusInternalServerError, "Failed to share item")
		return
	}
	if exists {
		writeError(w, http.StatusConflict, "Item already shared with this user")
		return
	}

	copied, err := h.itemRepo.ShareItem(item, username, req.TargetUserID)
	if err != nil {
		log.Printf("failed to share item %d: %v", item.ID, err)
		writeError(w, http.StatusInternalServerError, "Failed to share item")
		return
	}

	// The copy starts its own history at the shared price.
	if err := h.priceRepo.AddPricePoint(copied.ID, copied.CurrentPrice); err != nil {
		log.Printf("failed to record shared price point: %v", err)
	}

	h.hub.Broadcast(broadcast.RefreshSignal)
	writeJSON(w, http.StatusCreated, copied)
}

// UnshareItem removes a shared copy from the target user's list
func (h *Handlers) UnshareItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserFromContext(r.Context())

	var req models.ShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Only the original owner can withdraw a share.
	if _, err := h.itemRepo.GetItemByID(req.ItemID, userID); err != nil {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}

	if err := h.itemRepo.DeleteSharedCopy(req.ItemID, req.TargetUserID); err != nil {
		log.Printf("failed to unshare item %d: %v", req.ItemID, err)
		writeError(w, http.StatusInternalServerError, "Failed to unshare item")
		return
	}

	h.hub.Broadcast(broadcast.RefreshSignal)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Item unshared"})
}

// ExportCSV streams the user's items as a CSV download
func (h *Handlers) ExportCSV(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserFromContext(r.Context())

	items, err := h.itemRepo.GetItemsByUser(userID, false)
	if err != nil {
		log.Printf("failed to get items for export: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to export items")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="items_%s.csv"`, time.Now().Format("2006-01-02")))

	cw := csv.NewWriter(w)
	defer cw.Flush()

	_ = cw.Write([]string{"name", "url", "current_price", "previous_price", "currency", "last_checked", "date_added"})
	for _, item := range items {
		lastChecked := ""
		if item.LastChecked != nil {
			lastChecked = item.LastChecked.Format(time.RFC3339)
		}
		_ = cw.Write([]string{
			item.Name,
			item.URL,
			strconv.FormatFloat(item.CurrentPrice, 'f', 2, 64),
			strconv.FormatFloat(item.PreviousPrice, 'f', 2, 64),
			item.Currency,
			lastChecked,
			item.DateAdded.Format(time.RFC3339),
		})
	}
}

// Health reports service liveness
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func itemID(r *http.Request) (int, error) {
	return strconv.Atoi(mux.Vars(r)["id"])
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
