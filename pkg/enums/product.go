package enums

import "fmt"

// ProductCategory groups the catalog.
type ProductCategory string

const (
	CategoryShirts      ProductCategory = "shirts"
	CategoryPants       ProductCategory = "pants"
	CategoryDresses     ProductCategory = "dresses"
	CategoryShoes       ProductCategory = "shoes"
	CategoryAccessories ProductCategory = "accessories"
	CategoryOuterwear   ProductCategory = "outerwear"
	CategoryActivewear  ProductCategory = "activewear"
	CategoryUnderwear   ProductCategory = "underwear"
)

var validProductCategories = []ProductCategory{
	CategoryShirts,
	CategoryPants,
	CategoryDresses,
	CategoryShoes,
	CategoryAccessories,
	CategoryOuterwear,
	CategoryActivewear,
	CategoryUnderwear,
}

// String implements fmt.Stringer.
func (v ProductCategory) String() string {
	return string(v)
}

// IsValid reports whether the value is a known ProductCategory.
func (v ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw input into a ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}

// Gender is the audience a product is cut for.
type Gender string

const (
	GenderMen    Gender = "men"
	GenderWomen  Gender = "women"
	GenderKids   Gender = "kids"
	GenderUnisex Gender = "unisex"
)

var validGenders = []Gender{
	GenderMen,
	GenderWomen,
	GenderKids,
	GenderUnisex,
}

// String implements fmt.Stringer.
func (v Gender) String() string {
	return string(v)
}

// IsValid reports whether the value is a known Gender.
func (v Gender) IsValid() bool {
	for _, candidate := range validGenders {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseGender converts raw input into a Gender.
func ParseGender(value string) (Gender, error) {
	for _, candidate := range validGenders {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid gender %q", value)
}

// Size is a garment or shoe size label.
type Size string

const (
	SizeXS   Size = "XS"
	SizeS    Size = "S"
	SizeM    Size = "M"
	SizeL    Size = "L"
	SizeXL   Size = "XL"
	SizeXXL  Size = "XXL"
	SizeXXXL Size = "XXXL"
	Size6    Size = "6"
	Size7    Size = "7"
	Size8    Size = "8"
	Size9    Size = "9"
	Size10   Size = "10"
	Size11   Size = "11"
	Size12   Size = "12"
	Size13   Size = "13"
)

var validSizes = []Size{
	SizeXS,
	SizeS,
	SizeM,
	SizeL,
	SizeXL,
	SizeXXL,
	SizeXXXL,
	Size6,
	Size7,
	Size8,
	Size9,
	Size10,
	Size11,
	Size12,
	Size13,
}

// String implements fmt.Stringer.
func (v Size) String() string {
	return string(v)
}

// IsValid reports whether the value is a known Size.
func (v Size) IsValid() bool {
	for _, candidate := range validSizes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseSize converts raw input into a Size.
func ParseSize(value string) (Size, error) {
	for _, candidate := range validSizes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid size %q", value)
}

// ProductSort orders catalog listings.
type ProductSort string

const (
	ProductSortNewest    ProductSort = "newest"
	ProductSortPriceLow  ProductSort = "price_low"
	ProductSortPriceHigh ProductSort = "price_high"
	ProductSortRating    ProductSort = "rating"
	ProductSortPopular   ProductSort = "popular"
)

var validProductSorts = []ProductSort{
	ProductSortNewest,
	ProductSortPriceLow,
	ProductSortPriceHigh,
	ProductSortRating,
	ProductSortPopular,
}

// String implements fmt.Stringer.
func (v ProductSort) String() string {
	return string(v)
}

// IsValid reports whether the value is a known ProductSort.
func (v ProductSort) IsValid() bool {
	for _, candidate := range validProductSorts {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseProductSort converts raw input into a ProductSort.
func ParseProductSort(value string) (ProductSort, error) {
	for _, candidate := range validProductSorts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product sort %q", value)
}
