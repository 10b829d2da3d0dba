package graph

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/astrolabe-oss/corelib/internal/types"
)

// identifierPattern restricts labels, relationship types and property names
// that are spliced into Cypher text. Values always travel as parameters.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// edgesQuery is the fixed whole-graph traversal. Column names are part of
// the contract with Neo4jClient.Edges.
const edgesQuery = `MATCH (p)-[r]->(c)
RETURN p, labels(p) AS parent_labels, r, type(r) AS edge_type, c, labels(c) AS child_labels`

const (
	setPropertiesQuery = "MATCH (n) WHERE elementId(n) = $id SET n += $props RETURN elementId(n) AS id"
	deleteNodeQuery    = "MATCH (n) WHERE elementId(n) = $id DETACH DELETE n RETURN count(n) AS deleted"
)

// quoteIdentifier validates name and returns it wrapped in backquotes.
func quoteIdentifier(name string) (string, error) {
	if !identifierPattern.MatchString(name) {
		return "", types.NewError(ErrCodeGraphInvalidQuery,
			fmt.Sprintf("invalid identifier %q", name))
	}
	return "`" + name + "`", nil
}

func labelClause(labels []string) (string, error) {
	var sb strings.Builder
	for _, label := range labels {
		quoted, err := quoteIdentifier(label)
		if err != nil {
			return "", err
		}
		sb.WriteString(":")
		sb.WriteString(quoted)
	}
	return sb.String(), nil
}

func buildCreateNode(labels []string) (string, error) {
	if len(labels) == 0 {
		return "", types.NewError(ErrCodeGraphInvalidQuery, "node requires at least one label")
	}
	clause, err := labelClause(labels)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CREATE (n%s) SET n = $props RETURN elementId(n) AS id", clause), nil
}

// buildFindNodes renders an exact-match lookup. Keys are sorted so the same
// match map always renders the same statement.
func buildFindNodes(label string, match map[string]any) (string, map[string]any, error) {
	quotedLabel, err := quoteIdentifier(label)
	if err != nil {
		return "", nil, err
	}

	keys := make([]string, 0, len(match))
	for k := range match {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	params := make(map[string]any, len(keys))
	conditions := make([]string, 0, len(keys))
	for i, key := range keys {
		prop, err := quoteIdentifier(key)
		if err != nil {
			return "", nil, err
		}
		if match[key] == nil {
			conditions = append(conditions, fmt.Sprintf("n.%s IS NULL", prop))
			continue
		}
		param := fmt.Sprintf("p%d", i)
		conditions = append(conditions, fmt.Sprintf("n.%s = $%s", prop, param))
		params[param] = match[key]
	}

	var sb strings.Builder
	sb.WriteString("MATCH (n:")
	sb.WriteString(quotedLabel)
	sb.WriteString(")")
	if len(conditions) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conditions, " AND "))
	}
	sb.WriteString(" RETURN n")
	return sb.String(), params, nil
}

func buildCreateRelationship(relType string) (string, error) {
	quoted, err := quoteIdentifier(relType)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`MATCH (from), (to)
WHERE elementId(from) = $fromId AND elementId(to) = $toId
CREATE (from)-[r:%s]->(to)
SET r = $props
RETURN elementId(r) AS id`, quoted), nil
}

func buildNeighbors(relType string, dir Direction, label string) (string, error) {
	quotedType, err := quoteIdentifier(relType)
	if err != nil {
		return "", err
	}
	target := "(m)"
	if label != "" {
		quotedLabel, err := quoteIdentifier(label)
		if err != nil {
			return "", err
		}
		target = "(m:" + quotedLabel + ")"
	}

	pattern := fmt.Sprintf("(n)-[:%s]->%s", quotedType, target)
	if dir == DirectionIncoming {
		pattern = fmt.Sprintf("(n)<-[:%s]-%s", quotedType, target)
	}
	return fmt.Sprintf("MATCH %s WHERE elementId(n) = $id RETURN elementId(m) AS id", pattern), nil
}

// constraintName derives a stable constraint name so repeated calls hit IF NOT EXISTS.
func constraintName(label, property string) string {
	return fmt.Sprintf("corelib_%s_%s_unique", strings.ToLower(label), strings.ToLower(property))
}

func buildUniqueConstraint(label, property string) (string, error) {
	quotedLabel, err := quoteIdentifier(label)
	if err != nil {
		return "", err
	}
	quotedProp, err := quoteIdentifier(property)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CREATE CONSTRAINT %s IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE",
		constraintName(label, property), quotedLabel, quotedProp), nil
}
