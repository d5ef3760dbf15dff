package store

// Project-scoped keys. Secondary-tree collapse state is keyed by the page's
// HTML name instead of a constant.
const (
	KeyPrevURL             = "prev_url"
	KeyDualNav             = "dual_nav"
	KeyPriWidth            = "pri_width"
	KeySecWidth            = "sec_width"
	KeyGenData             = "gen_data"
	KeyPriTree             = "pri_tree"
	KeyPriTreeIndented     = "pri_tree_indented"
	KeyPriNavExpandedNodes = "pri_nav_expanded_nodes"
)

// KeyExpiredDataPurgeDate is shared by every project of the store and is
// therefore never namespaced.
const KeyExpiredDataPurgeDate = "expired_data_purge_date"
