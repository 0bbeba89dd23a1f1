package metaplex

// Attribute is a trait of an NFT in off-chain metadata.
type Attribute struct {
	TraitType string      `json:"trait_type"`
	Value     interface{} `json:"value"`
}

// File is an asset listed under properties.files.
type File struct {
	URI  string `json:"uri"`
	Type string `json:"type,omitempty"`
}

// CreatorShare is a creator listed under properties.creators.
type CreatorShare struct {
	Address string `json:"address"`
	Share   uint8  `json:"share"`
}

// Properties groups asset files and creators.
type Properties struct {
	Files    []File         `json:"files,omitempty"`
	Category string         `json:"category,omitempty"`
	Creators []CreatorShare `json:"creators,omitempty"`
}

// JSONMetadata is the off-chain document the on-chain URI points to.
type JSONMetadata struct {
	Name                 string      `json:"name"`
	Symbol               string      `json:"symbol"`
	Description          string      `json:"description,omitempty"`
	SellerFeeBasisPoints uint16      `json:"seller_fee_basis_points"`
	Image                string      `json:"image"`
	ExternalURL          string      `json:"external_url,omitempty"`
	Attributes           []Attribute `json:"attributes,omitempty"`
	Properties           *Properties `json:"properties,omitempty"`
}
