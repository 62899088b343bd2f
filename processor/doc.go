/*
Package processor generates RecordStore registration code from OpenAPI
documents.

The processor reads the component schemas of an OpenAPI document with
vendor extensions and emits Go code that registers entity schemas and
declares filter match-mode tables.

OpenAPI Extensions:
Entities carry x-recordstore; properties marked x-fuzzy are matched by
substring. Property names are the db columns of the Go type.

	Project:
	  type: object
	  x-recordstore:
	    table: project
	    key: id
	    keyKind: serial
	    unique: [code]
	  properties:
	    id:
	      type: integer
	      format: int64
	    name:
	      type: string
	      x-fuzzy: true
	    code:
	      type: string

	ProjectQuery:
	  type: object
	  properties:
	    name:
	      type: string
	      x-fuzzy: true

Generated Code:

	func init() {
	    registry.MustRegister[Project](storagemodels.Schema{
	        Name:    "Project",
	        Table:   "project",
	        Key:     "id",
	        KeyKind: storagemodels.KeySerial,
	        Unique:  []string{"code"},
	        Fuzzy:   []string{"name"},
	    })
	}

	// ProjectQueryModes is the match-mode table of ProjectQuery.
	var ProjectQueryModes = filter.Modes{
	    "name": filter.Contains,
	}

	func (ProjectQuery) FilterModes() filter.Modes { return ProjectQueryModes }

Schemas with neither extension are plain request types and are skipped.
String properties whose format is known to strfmt are recorded in
Schema.Formats, except date and date-time which map to time.Time fields.
*/
package processor
