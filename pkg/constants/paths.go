package constants

// HTTP surface of the mock session directory.
const (
	PathHealth = "/health"
	PathReady  = "/ready"
	PathEvents = "/ws/events"

	PathTemplate     = "/serviceconfigs/:scid/sessiontemplates/:templateName"
	PathSession      = "/serviceconfigs/:scid/sessiontemplates/:templateName/sessions/:sessionName"
	PathUserSessions = "/users/:xuid/sessions"
	PathHandles      = "/handles"
	PathHandlesQuery = "/handles/query"
)

// Request headers the mock understands. Bearer identity carries the xuid as
// the token itself; its absence means the caller authenticated with a
// certificate only.
const (
	HeaderAuthorization   = "Authorization"
	HeaderOnBehalfOfUsers = "X-Xbl-OnBehalfOf-Users"
	HeaderDenyScope       = "X-Xbl-Deny-Scope"
	HeaderContractVersion = "X-Xbl-Contract-Version"

	BearerPrefix    = "Bearer "
	DenyScopeManage = "manage"
)

const (
	// ContractVersion is echoed in template bodies and stamped on every
	// response via the contract-version header.
	ContractVersion = 107

	// MaxActivityHandleIDLen bounds the handle id derived from a session
	// name: the trailing 39 characters.
	MaxActivityHandleIDLen = 39

	// DefaultMaxMembersCount fills in constants.system.maxMembersCount when
	// a create body omits it.
	DefaultMaxMembersCount = 100
)
