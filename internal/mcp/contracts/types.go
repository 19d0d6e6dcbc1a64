package contracts

const (
	ServerName      = "hyperbase"
	ContractVersion = "v1"
)

// Tool names exposed over MCP.
const (
	ToolCreateNode         = "create_node"
	ToolGetNode            = "get_node"
	ToolSearchNodes        = "search_nodes"
	ToolDeleteNode         = "delete_node"
	ToolCreateEdge         = "create_edge"
	ToolBatchCreateEdges   = "batch_create_edges"
	ToolGetEdge            = "get_edge"
	ToolSearchEdges        = "search_edges"
	ToolUpsertEdge         = "upsert_edge"
	ToolDeleteEdge         = "delete_edge"
	ToolLookupEdgesByNodes = "lookup_edges_by_nodes"
	ToolGetNeighbors       = "get_neighbors"
	ToolFindPaths          = "find_paths"
	ToolGetStats           = "get_stats"
)

// Resource URIs exposed over MCP.
const (
	ResourceSchema = "hyperbase://schema"
	ResourceStats  = "hyperbase://stats"
)

type NodePayload struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
}

type IncidencePayload struct {
	NodeID     string         `json:"node_id,omitempty"`
	EdgeRefID  string         `json:"edge_ref_id,omitempty"`
	Direction  string         `json:"direction,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

type EdgePayload struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	Nodes      []string           `json:"nodes"`
	Incidences []IncidencePayload `json:"incidences"`
	Source     string             `json:"source"`
	Confidence float64            `json:"confidence"`
	Properties map[string]any     `json:"properties,omitempty"`
}

type CreateNodeInput struct {
	ID         string         `json:"id"`
	Type       string         `json:"type,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

type CreateNodeOutput struct {
	Node NodePayload `json:"node"`
}

type GetNodeInput struct {
	ID string `json:"id"`
}

type GetNodeOutput struct {
	Node  NodePayload `json:"node"`
	Found bool        `json:"found"`
}

type SearchNodesInput struct {
	Type        string         `json:"type,omitempty"`
	TypePattern string         `json:"type_pattern,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
	Limit       int            `json:"limit,omitempty"`
}

type SearchNodesOutput struct {
	Nodes []NodePayload `json:"nodes"`
	Total int           `json:"total"`
}

type DeleteNodeInput struct {
	ID      string `json:"id"`
	Cascade bool   `json:"cascade,omitempty"`
}

type DeleteNodeOutput struct {
	Deleted      bool `json:"deleted"`
	EdgesDeleted int  `json:"edges_deleted,omitempty"`
}

type CreateEdgeInput struct {
	Nodes      []string       `json:"nodes"`
	Type       string         `json:"type"`
	Directed   bool           `json:"directed,omitempty"`
	Source     string         `json:"source,omitempty"`
	Confidence *float64       `json:"confidence,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	ID         string         `json:"id,omitempty"`
}

type CreateEdgeOutput struct {
	Edge EdgePayload `json:"edge"`
}

type BatchCreateEdgesInput struct {
	Edges []CreateEdgeInput `json:"edges"`
}

type BatchCreateEdgesOutput struct {
	Edges   []EdgePayload `json:"edges"`
	Created int           `json:"created"`
}

type GetEdgeInput struct {
	ID string `json:"id"`
}

type GetEdgeOutput struct {
	Edge  EdgePayload `json:"edge"`
	Found bool        `json:"found"`
}

type SearchEdgesInput struct {
	Containing    []string       `json:"containing,omitempty"`
	MatchAll      bool           `json:"match_all,omitempty"`
	Type          string         `json:"type,omitempty"`
	TypePattern   string         `json:"type_pattern,omitempty"`
	Source        string         `json:"source,omitempty"`
	MinConfidence *float64       `json:"min_confidence,omitempty"`
	Properties    map[string]any `json:"properties,omitempty"`
	Limit         int            `json:"limit,omitempty"`
}

type SearchEdgesOutput struct {
	Edges []EdgePayload `json:"edges"`
	Total int           `json:"total"`
}

type UpsertEdgeInput struct {
	Nodes      []string       `json:"nodes"`
	Type       string         `json:"type"`
	Source     string         `json:"source,omitempty"`
	Confidence *float64       `json:"confidence,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

type UpsertEdgeOutput struct {
	Edge EdgePayload `json:"edge"`
}

type DeleteEdgeInput struct {
	ID string `json:"id"`
}

type DeleteEdgeOutput struct {
	Deleted bool `json:"deleted"`
}

type LookupEdgesByNodesInput struct {
	Nodes []string `json:"nodes"`
	Type  string   `json:"type,omitempty"`
}

type LookupEdgesByNodesOutput struct {
	Edges []EdgePayload `json:"edges"`
	Found bool          `json:"found"`
}

type GetNeighborsInput struct {
	NodeID    string   `json:"node_id"`
	EdgeTypes []string `json:"edge_types,omitempty"`
}

type GetNeighborsOutput struct {
	Neighbors []NodePayload `json:"neighbors"`
}

type FindPathsInput struct {
	StartNodes      []string `json:"start_nodes"`
	EndNodes        []string `json:"end_nodes"`
	MaxHops         int      `json:"max_hops,omitempty"`
	MaxPaths        int      `json:"max_paths,omitempty"`
	MinIntersection int      `json:"min_intersection,omitempty"`
	EdgeTypes       []string `json:"edge_types,omitempty"`
	DirectionMode   string   `json:"direction_mode,omitempty"`
}

type FindPathsOutput struct {
	Paths [][]EdgePayload `json:"paths"`
	Count int             `json:"count"`
}

type GetStatsInput struct{}

type SourceSummaryPayload struct {
	Source        string  `json:"source"`
	EdgeCount     int     `json:"edge_count"`
	AvgConfidence float64 `json:"avg_confidence"`
}

type GetStatsOutput struct {
	Namespace   string                 `json:"namespace"`
	NodeCount   int                    `json:"node_count"`
	EdgeCount   int                    `json:"edge_count"`
	NodesByType map[string]int         `json:"nodes_by_type"`
	EdgesByType map[string]int         `json:"edges_by_type"`
	Sources     []SourceSummaryPayload `json:"sources"`
}

type ToolError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e ToolError) Error() string {
	return e.Message
}

const (
	ErrorInvalidArgument = "invalid_argument"
	ErrorNotFound        = "not_found"
	ErrorInternal        = "internal"
	ErrorUnavailable     = "unavailable"
)
