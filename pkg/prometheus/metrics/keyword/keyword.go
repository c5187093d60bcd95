package keyword

var (
	Allocations     = "adv_memory_allocations_total"     // blocks handed out by the allocator
	Releases        = "adv_memory_releases_total"        // blocks returned to the allocator
	Finalizations   = "adv_memory_finalizations_total"   // payload finalizers executed
	BytesInUse      = "adv_memory_bytes_in_use"          // live bytes accounted by the allocator
	LiveBlocks      = "adv_memory_live_blocks"           // blocks allocated and not yet released
	BorrowConflicts = "adv_memory_borrow_conflicts_total"
	UpgradeMisses   = "adv_memory_weak_upgrade_misses_total"
	AffinityViolations = "adv_memory_affinity_violations_total" // primitives touched from a foreign goroutine
)
