package scheduler

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	"lootlook/broadcast"
	"lootlook/repository"
	"lootlook/scraper"
)

type PriceChecker struct {
	cron      *cron.Cron
	itemRepo  *repository.ItemRepository
	priceRepo *repository.PriceRepository
	scraper   *scraper.Scraper
	hub       *broadcast.Hub
	// Caps concurrent browser subprocesses during a sweep.
	slots chan struct{}
}

func NewPriceChecker(sc *scraper.Scraper, hub *broadcast.Hub, maxConcurrent int) *PriceChecker {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &PriceChecker{
		cron:      cron.New(cron.WithSeconds()),
		itemRepo:  repository.NewItemRepository(),
		priceRepo: repository.NewPriceRepository(),
		scraper:   sc,
		hub:       hub,
		slots:     make(chan struct{}, maxConcurrent),
	}
}

// Start schedules the 8-hourly price sweep and the daily retention
// janitor
func (pc *PriceChecker) Start() {
	if _, err := pc.cron.AddFunc("0 0 */8 * * *", pc.checkAllPrices); err != nil {
		log.Printf("Failed to schedule price checker: %v", err)
		return
	}
	if _, err := pc.cron.AddFunc("0 30 3 * * *", pc.runJanitor); err != nil {
		log.Printf("Failed to schedule retention janitor: %v", err)
	}

	pc.cron.Start()
	log.Println("Price checker scheduled to run every 8 hours")
}

// Stop stops the scheduled price checking
func (pc *PriceChecker) Stop() {
	if pc.cron != nil {
		pc.cron.Stop()
	}
}

// checkAllPrices refreshes every distinct tracked URL once, then fans
// the result out to all items tracking it
func (pc *PriceChecker) checkAllPrices() {
	log.Println("Starting scheduled price check for all tracked URLs")

	urls, err := pc.itemRepo.GetDistinctActiveURLs()
	if err != nil {
		log.Printf("Failed to get tracked URLs: %v", err)
		return
	}
	if len(urls) == 0 {
		log.Println("No URLs to check")
		return
	}

	log.Printf("Checking prices for %d URLs", len(urls))

	var wg sync.WaitGroup
	var changed atomic.Bool
	for _, url := range urls {
		wg.Add(1)
		pc.slots <- struct{}{}
		go func(u string) {
			defer wg.Done()
			defer func() { <-pc.slots }()
			if pc.checkURL(u) {
				changed.Store(true)
			}
		}(url)
	}
	wg.Wait()

	if changed.Load() {
		pc.hub.Broadcast(broadcast.RefreshSignal)
	}
	log.Println("Scheduled price check finished")
}

// checkURL scrapes one URL and updates every live item tracking it.
// Reports whether any item's price actually moved.
func (pc *PriceChecker) checkURL(url string) bool {
	snapshot, err := pc.scraper.Extract(url)
	if err != nil {
		log.Printf("Failed to scrape %s: %v", url, err)
		pc.markURLChecked(url)
		return false
	}

	items, err := pc.itemRepo.GetItemsByURL(url)
	if err != nil {
		log.Printf("Failed to get items for %s: %v", url, err)
		return false
	}

	changed := false
	for _, item := range items {
		if err := pc.itemRepo.UpdateItemPrice(item.ID, snapshot); err != nil {
			log.Printf("Failed to update item %d: %v", item.ID, err)
			continue
		}
		if snapshot.Price != item.CurrentPrice {
			changed = true
			if err := pc.priceRepo.AddPricePoint(item.ID, snapshot.Price); err != nil {
				log.Printf("Failed to record price point for item %d: %v", item.ID, err)
			}
			log.Printf("Price changed for %q: %s%.2f -> %s%.2f",
				item.Name, item.Currency, item.CurrentPrice, snapshot.Currency, snapshot.Price)
		}
	}
	return changed
}

// markURLChecked bumps last_checked on items whose refresh failed so
// they do not look stale forever
func (pc *PriceChecker) markURLChecked(url string) {
	items, err := pc.itemRepo.GetItemsByURL(url)
	if err != nil {
		return
	}
	for _, item := range items {
		if err := pc.itemRepo.MarkChecked(item.ID); err != nil {
			log.Printf("Failed to mark item %d checked: %v", item.ID, err)
		}
	}
}

// runJanitor prunes price history past each item's retention window,
// then empties trashed items past theirs
func (pc *PriceChecker) runJanitor() {
	if n, err := pc.priceRepo.PruneHistory(); err != nil {
		log.Printf("Failed to prune price history: %v", err)
	} else if n > 0 {
		log.Printf("Retention janitor pruned %d price points", n)
	}

	if n, err := pc.itemRepo.PurgeExpired(); err != nil {
		log.Printf("Failed to purge trashed items: %v", err)
	} else if n > 0 {
		log.Printf("Retention janitor removed %d trashed items", n)
	}
}

// ManualCheck allows manual triggering of price checks
func (pc *PriceChecker) ManualCheck() {
	log.Println("Manual price check triggered")
	go pc.checkAllPrices()
}
