// Package catalog declares the fixed set of tools the model may invoke
// against the session's dataframe stack and series register, along with
// their input schemas. The set never changes within a session.
package catalog

// PopInput has no arguments.
type PopInput struct{}

// DataFrameOperationInput addresses a stack element and names the
// operation to invoke on it.
type DataFrameOperationInput struct {
	TargetFrame int            `json:"target_frame" jsonschema_description:"Top-relative position of the target dataframe in the stack; 0 is the element on top."`
	Function    string         `json:"function" jsonschema_description:"Name of the dataframe operation to call. Namespaced operations use a dot, as in plot.bar."`
	Kwargs      map[string]any `json:"kwargs" jsonschema_description:"Keyword arguments for the operation. Values must be literal strings, numbers, booleans or lists of those; functions and expressions are not accepted as values."`
}

// SeriesOperationInput names the operation to invoke on the register.
type SeriesOperationInput struct {
	Function string         `json:"function" jsonschema_description:"Name of the series operation to call. Namespaced operations use a dot, as in rolling.mean."`
	Kwargs   map[string]any `json:"kwargs" jsonschema_description:"Keyword arguments for the operation. Values must be literal strings, numbers, booleans or lists of those."`
}

// SeriesAssignInput writes the register into a column of the top frame.
type SeriesAssignInput struct {
	ColumnName string `json:"column_name" jsonschema_description:"Name of the column the register series is assigned to."`
	InPlace    bool   `json:"in_place,omitempty" jsonschema_description:"If true the column is written into the dataframe on top of the stack. If false (default) a copy with the new column is pushed onto the stack instead."`
}

var PopDefinition = ToolDefinition{
	Name: "pop",
	Description: `Remove the top element from the dataframe stack. Returns the removed element's textual representation. Use this to discard intermediate results you no longer need.`,
	InputSchema: PopInputSchema,
}

var DataFrameOperationDefinition = ToolDefinition{
	Name: "dataframe_operation",
	Description: `Call an operation on a dataframe in the stack, addressed by its top-relative position.

Columns are accessed as functions: use __getitem__(key="a") for a single column (loads the series register) or __getitem__(key=["a","b"]) for a sub-frame. keys() lists column names. Available operations: __getitem__, keys, shape, head, tail, describe, filter(column, comparator, value), sort_values(by, ascending), drop(columns), rename(column, to), groupby(by), merge(with, on, how), eval(expr), plot.bar(x, y), plot.line(y[, x]), plot.scatter(x, y), plot.hist(column[, bins]). On a grouped dataframe only agg(func, columns) is available.

eval(expr) evaluates an expression such as "price * qty" row by row over the columns and loads the result into the series register.

The result is returned as text. A dataframe result (including a groupby) is also pushed onto the stack; a series result is loaded into the series register, replacing its contents. A chart is returned as an image. Any other result is only shown as text and is NOT saved, so it cannot be operated on later.`,
	InputSchema: DataFrameOperationInputSchema,
}

var SeriesOperationDefinition = ToolDefinition{
	Name: "series_operation",
	Description: `Call an operation on the series currently in the series register.

Available operations: __getitem__(index), head(n), unique, sort_values(ascending), value_counts, sum, mean, median, min, max, std, quantile(q), rolling.mean(window), rolling.std(window), plot.hist(bins), plot.line.

The result is returned as text. A series result replaces the register; a dataframe result (value_counts) is pushed onto the stack; a chart is returned as an image. Scalar results are only shown as text.`,
	InputSchema: SeriesOperationInputSchema,
}

var SeriesAssignDefinition = ToolDefinition{
	Name: "series_assign",
	Description: `Assign the series in the register to a named column of the dataframe on top of the stack. Use this in place of assignment expressions: for example, to add a column c equal to a + b, first call eval(expr="a + b") to load the sum into the register, then series_assign(column_name="c"). With in_place=false (the default) a copy of the top dataframe with the new column is pushed onto the stack; with in_place=true the top dataframe itself is modified.`,
	InputSchema: SeriesAssignInputSchema,
}

var PopInputSchema = GenerateSchema[PopInput]()
var DataFrameOperationInputSchema = GenerateSchema[DataFrameOperationInput]()
var SeriesOperationInputSchema = GenerateSchema[SeriesOperationInput]()
var SeriesAssignInputSchema = GenerateSchema[SeriesAssignInput]()

// Registry returns all tool definitions exposed to the model.
func Registry() []ToolDefinition {
	return []ToolDefinition{
		PopDefinition,
		DataFrameOperationDefinition,
		SeriesOperationDefinition,
		SeriesAssignDefinition,
	}
}
