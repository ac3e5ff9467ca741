package registry

import "github.com/kiara-db/kiara/internal/backend"

// Attribute identifiers for system-store bookkeeping. The same baseline
// is installed into every newly created store so graph stores carry the
// partitioning attributes the reader relies on.
const (
	AttrGraphName = "kiara/graph-name"
	AttrGraphURL  = "kiara/graph-url"
	AttrDefault   = "kiara/default-graph"
	AttrNSPrefix  = "kiara/ns-prefix"
	AttrNSURI     = "kiara/ns-uri"

	// SystemEntity is the distinguished entity carrying the default-graph
	// reference. Exactly one such reference exists once initialized.
	SystemEntity = "kiara/system"
)

// Baseline is the attribute schema installed at store creation, before
// any data commit.
var Baseline = []backend.AttrDef{
	{Ident: AttrGraphName, Type: backend.TypeString, Cardinality: backend.CardinalityOne},
	{Ident: AttrGraphURL, Type: backend.TypeString, Cardinality: backend.CardinalityOne},
	{Ident: AttrDefault, Type: backend.TypeRef, Cardinality: backend.CardinalityOne},
	{Ident: AttrNSPrefix, Type: backend.TypeString, Cardinality: backend.CardinalityOne},
	{Ident: AttrNSURI, Type: backend.TypeString, Cardinality: backend.CardinalityOne},
}
