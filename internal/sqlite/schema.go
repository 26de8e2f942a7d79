package sqlite

// Schema DDL for the rarity index.
const (
	createLayers = `CREATE TABLE layers (
    layer_pos INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);`

	createItems = `CREATE TABLE items (
    item_index INTEGER PRIMARY KEY,
    asset_count INTEGER NOT NULL
);`

	createItemTraits = `CREATE TABLE item_traits (
    item_index INTEGER NOT NULL,
    layer_pos INTEGER NOT NULL,
    trait TEXT NOT NULL,
    PRIMARY KEY (item_index, layer_pos),
    FOREIGN KEY (item_index) REFERENCES items(item_index),
    FOREIGN KEY (layer_pos) REFERENCES layers(layer_pos)
);`
)

// Index DDL for the aggregate queries.
const (
	idxItemTraitsLayerTrait = `CREATE INDEX idx_item_traits_layer_trait ON item_traits(layer_pos, trait);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createLayers,
	createItems,
	createItemTraits,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxItemTraitsLayerTrait,
}
