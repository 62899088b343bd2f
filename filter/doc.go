/*
Package filter turns request DTOs into backend-neutral predicates.

Each DTO declares, once, which of its columns match by substring:

	type ProjectQuery struct {
	    filter.Query `db:"-"`
	    Name string  `db:"name"`
	    Code string  `db:"code"`
	}

	func (ProjectQuery) FilterModes() filter.Modes {
	    return filter.Modes{"name": filter.Contains}
	}

FromDTO skips empty fields, turns Contains string fields into
case-insensitive substring conditions and everything else into equality,
and AND-s the result:

	pred := filter.FromDTO(ProjectQuery{Name: "proj", Code: "P001"})
	// name contains "proj" AND code = "P001"

FromRequest additionally applies the embedded Query: a where expression
("status==1&&budget>=1000"), a keyword searched across the Contains
columns, and order and paging for the returned PageSpec.

Predicates are executed by the datastore backends, or in process with Match.
*/
package filter
