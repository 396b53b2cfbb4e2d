package types

// Table names owned by the schema migrations.
const (
	TableUser         = "user"
	TableSession      = "session"
	TableAccount      = "account"
	TableVerification = "verification"
	TableLocation     = "location"
	TableMigrations   = "_migrations"
)

// ViewLocationDetail joins each location with its owner's name.
const ViewLocationDetail = "location_detail"

// ManagedViews lists every view the migrations create. Views are dropped
// before tables.
var ManagedViews = []string{
	ViewLocationDetail,
}

// ManagedTables lists every table the migrations create, in the order they
// can be dropped without violating foreign keys.
var ManagedTables = []string{
	TableSession,
	TableAccount,
	TableVerification,
	TableLocation,
	TableUser,
	TableMigrations,
}
