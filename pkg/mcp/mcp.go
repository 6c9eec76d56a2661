package mcp

const (
	name         = "condfmt"
	title        = "Conditional formatting"
	instructions = `MCP Server 'condfmt' evaluates spreadsheet conditional formatting rules against a workbook and explains the results.

When to use these tools:
- Finding which cells of a sheet are highlighted by which rules
- Understanding why a cell is, or is not, formatted
- Checking the effect of edits to the rule set or the workbook

REQUIRED workflow:
1. Use 'list_rules' first to see the registered rules, their ranges, and their priority order
2. Use 'evaluate_range' with a range in A1 notation (e.g. "A1:D20") to list the matching cells
3. Use 'explain_cell' with a single cell (e.g. "B7") to see every rule covering it and which of them matched
4. After editing the workbook or the rule set, call 'reload' before evaluating again

IMPORTANT: Ranges and cells MUST use A1 notation, and a range may span at most 100000 cells. Rule priority 0 is the highest, and a matching rule with stopIfTrue hides all lower priority rules.
`

	// maxCells bounds the number of cells returned by evaluate_range.
	maxCells = 500
	// maxEvaluated bounds the size of the range evaluate_range accepts.
	maxEvaluated = 100_000
)
