package postgresengine

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/heavy-duty/docstate/docstore"
)

const schemaTemplate = `
CREATE TABLE IF NOT EXISTS %[1]s (
    collection  TEXT NOT NULL,
    id          TEXT NOT NULL,
    data        JSONB NOT NULL DEFAULT '{}'::jsonb,
    seq         BIGSERIAL NOT NULL,
    create_time TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
    update_time TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
    PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS %[2]s ON %[1]s USING gin (data jsonb_path_ops);
CREATE INDEX IF NOT EXISTS %[3]s ON %[1]s (collection, seq);
`

// SchemaSQL returns the DDL creating the documents table and its indexes.
func (c *Client) SchemaSQL() string {
	return fmt.Sprintf(schemaTemplate,
		pq.QuoteIdentifier(c.tableName),
		pq.QuoteIdentifier(c.tableName+"_data_idx"),
		pq.QuoteIdentifier(c.tableName+"_collection_seq_idx"),
	)
}

// EnsureSchema creates the documents table and its indexes if they do not exist.
func (c *Client) EnsureSchema(ctx context.Context) error {
	op, ctx := c.instruments.Start(ctx, operationEnsureSchema, nil)

	ddl := c.SchemaSQL()
	if _, err := c.db.Exec(ctx, ddl); err != nil {
		mapped := toDocstoreError(err)
		c.instruments.LogError(ctx, logMsgDBExecFailed, err, logAttrQuery, ddl)
		op.Error(string(mapped.Code))

		return errors.Join(docstore.ErrEnsuringSchemaFailed, mapped)
	}

	op.Success(-1)
	c.instruments.LogOperation(ctx, operationEnsureSchema)

	return nil
}
