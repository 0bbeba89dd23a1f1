package domain

// CollectionIndex marks the collection descriptor in index fields.
const CollectionIndex = -1

// Attribute is one trait of an NFT.
type Attribute struct {
	TraitType string      `json:"trait_type"`
	Value     interface{} `json:"value"`
}

// Descriptor is a parsed local JSON descriptor with its image loaded.
type Descriptor struct {
	Path                 string      // descriptor file path
	Index                int         // item index; CollectionIndex for collection.json
	Name                 string      // token name
	Symbol               string      // token symbol
	Description          string      // optional
	SellerFeeBasisPoints uint16      // royalty, 0..10000
	ImageName            string      // image file name relative to the descriptor
	Image                []byte      // image bytes
	ExternalURL          string      // optional
	Attributes           []Attribute // optional
}

// IsCollection reports whether the descriptor defines the collection token.
func (d *Descriptor) IsCollection() bool {
	return d.Index == CollectionIndex
}
