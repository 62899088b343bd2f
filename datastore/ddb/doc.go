/*
Package ddb provides a DynamoDB implementation of the DataStore interface.

The Store supports:
  - Single-table design: every entity type shares one table
  - Transactional unique columns through guard items
  - Atomic serial keys through a per-table counter item
  - Case-insensitive contains filters through lowercase shadow attributes
  - Enhanced streaming with retry logic

Item layout:

	PK = SK = "<table>#<id>"              the record
	PK = SK = "UNIQUE#<table>#<col>#<v>"  reserves value v of a unique column
	PK = SK = "SEQ#<table>"               serial key counter (attribute "seq")

Every record carries an EntityType attribute naming its schema, used to
select the records of one type when scanning, or as the partition key of
the optional type index (WithTypeIndex). String columns are mirrored into
"<col>__lc" attributes holding their lowercase value.

Streaming:
The enhanced streaming API supports configurable options:

	results := store.Stream(ctx, pred,
	    storagemodels.WithBufferSize(100),
	    storagemodels.WithPageSize(25),
	    storagemodels.WithMaxRetries(3),
	    storagemodels.WithProgressHandler(func(p storagemodels.StreamProgress) {
	        log.Printf("Processed %d items", p.ItemsProcessed)
	    }),
	)

List reads all records of the type and orders them in process, so it suits
tables where each entity type stays small.
*/
package ddb
