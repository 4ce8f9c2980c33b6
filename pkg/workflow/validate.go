package workflow

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dukex/flowdeck/pkg/models"
)

// IssueKind classifies a validation problem.
type IssueKind string

const (
	IssueMissingName       IssueKind = "MissingName"
	IssueEmptyNodeSet      IssueKind = "EmptyNodeSet"
	IssueMissingNodeID     IssueKind = "MissingNodeID"
	IssueMissingNodeType   IssueKind = "MissingNodeType"
	IssueMissingNodeName   IssueKind = "MissingNodeName"
	IssueDanglingSourceRef IssueKind = "DanglingSourceRef"
	IssueDanglingTargetRef IssueKind = "DanglingTargetRef"
	IssueSelfLoop          IssueKind = "SelfLoop"
)

// Issue is a single structural problem found in a workflow.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	NodeID  string    `json:"nodeId,omitempty"`
	Message string    `json:"message"`
}

func (i Issue) Error() string {
	return i.Message
}

// ValidationResult is the outcome of a validation pass. Errors mirrors the messages of
// Issues for callers that only show text.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
	Issues []Issue  `json:"issues"`
}

// Summary joins all error messages with ", ".
func (r ValidationResult) Summary() string {
	return strings.Join(r.Errors, ", ")
}

// Has reports whether any issue of the given kind was found.
func (r ValidationResult) Has(kind IssueKind) bool {
	for _, issue := range r.Issues {
		if issue.Kind == kind {
			return true
		}
	}

	return false
}

type collector struct {
	issues []Issue
}

func (c *collector) add(kind IssueKind, nodeID, format string, args ...any) {
	c.issues = append(c.issues, Issue{Kind: kind, NodeID: nodeID, Message: fmt.Sprintf(format, args...)})
}

func (c *collector) result() ValidationResult {
	result := ValidationResult{
		Valid:  len(c.issues) == 0,
		Errors: make([]string, 0, len(c.issues)),
		Issues: make([]Issue, 0, len(c.issues)),
	}

	for _, issue := range c.issues {
		result.Errors = append(result.Errors, issue.Message)
		result.Issues = append(result.Issues, issue)
	}

	return result
}

// ValidateWorkflow checks required fields and connection referential integrity. Every rule
// runs independently and all problems are reported.
func ValidateWorkflow(workflow *models.Workflow) ValidationResult {
	var c collector

	checkStructure(&c, workflow)

	return c.result()
}

// ValidateForDeployment runs ValidateWorkflow and additionally flags connections whose
// target is their own source. Only direct self-loops are detected; a cycle through two or
// more other nodes passes.
func ValidateForDeployment(workflow *models.Workflow) ValidationResult {
	var c collector

	checkStructure(&c, workflow)

	if workflow != nil {
		for _, edge := range workflow.Connections.Edges() {
			if edge.Target.Node == edge.Source {
				c.add(IssueSelfLoop, edge.Source, "Node %s has a circular reference to itself", edge.Source)
			}
		}
	}

	return c.result()
}

func checkStructure(c *collector, workflow *models.Workflow) {
	if workflow == nil {
		workflow = &models.Workflow{}
	}

	if workflow.Name == "" {
		c.add(IssueMissingName, "", "Workflow name is required")
	}

	if len(workflow.Nodes) == 0 {
		c.add(IssueEmptyNodeSet, "", "Workflow must contain at least one node")
	}

	nodeIDs := make(map[string]struct{}, len(workflow.Nodes))

	for index, node := range workflow.Nodes {
		if node == nil {
			node = &models.Node{}
		}

		nodeIDs[node.ID] = struct{}{}

		ref := node.ID
		if ref == "" {
			ref = strconv.Itoa(index)

			c.add(IssueMissingNodeID, "", "Node at index %d is missing an ID", index)
		}

		if node.Type == "" {
			c.add(IssueMissingNodeType, node.ID, "Node %s is missing a type", ref)
		}

		if node.Name == "" {
			c.add(IssueMissingNodeName, node.ID, "Node %s is missing a name", ref)
		}
	}

	for _, source := range workflow.Connections.Sources() {
		if _, ok := nodeIDs[source]; !ok {
			c.add(IssueDanglingSourceRef, source, "Connection references non-existent source node: %s", source)
		}

		outputs := workflow.Connections.Outputs(source)
		for _, name := range outputs.Names() {
			for _, target := range outputs.Targets(name) {
				if _, ok := nodeIDs[target.Node]; !ok {
					c.add(IssueDanglingTargetRef, target.Node, "Connection references non-existent target node: %s", target.Node)
				}
			}
		}
	}
}
