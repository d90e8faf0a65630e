package catalog

// ImageSlots is the number of numbered mockups each design folder carries.
const ImageSlots = 80

// imageSlots maps base garment type -> color -> numbered mockup.
var imageSlots = map[string]map[string]int{
	"Ringer T-Shirt": {"Black": 22, "Blue": 23, "Red": 24, "Navy": 25},
	"Raglan T-Shirt": {"Black": 55, "Navy": 56, "Blue": 57, "Red": 58},
	"T Shirt": {
		"Black": 59, "Heather Grey": 60, "Kelly": 61, "Navy": 62, "Red": 63, "Royal": 64, "White": 65,
	},
	"Hoodie": {
		"Black": 26, "Heather Grey": 27, "Navy": 28, "Kelly": 29, "Red": 30, "Royal": 31, "White": 32,
	},
	"Sweatshirt": {
		"Kelly": 40, "Navy": 41, "Royal": 42, "Red": 43, "Sky": 44, "White": 45, "Black": 46, "Heather Grey": 47,
	},
	"Ladies Shirt": {
		"Red": 66, "Black": 67, "Heather Grey": 68, "Navy": 69, "Kelly": 70, "Royal": 71, "White": 72,
	},
	"Tank-Top": {
		"White": 48, "Royal": 49, "Red": 50, "Navy": 51, "Black": 52, "Heather Grey": 53, "Kelly": 54,
	},
	"Longsleeve T-Shirt": {
		"Navy": 33, "Kelly": 34, "Red": 35, "Royal": 36, "White": 37, "Black": 38, "Heather Grey": 39,
	},
	"Oversized T Shirts": {
		"Black": 73, "White": 74, "Vintage Blue": 75, "Retro Green": 76, "Intense Blue": 77,
		"Hibiskus Pink": 78, "Dark Grey": 79, "City Red": 80,
	},
	"Kids T Shirt": {
		"White": 1, "Kelly": 2, "Navy": 3, "Red": 4, "Royal": 5, "Black": 6, "Heather Grey": 7,
	},
	"Kids Hoodie": {
		"Black": 15, "Heather Grey": 16, "Navy": 17, "White": 18, "Red": 19, "Royal": 20, "Kelly": 21,
	},
	"Kids Sweatshirt": {
		"White": 8, "Black": 9, "Heather Grey": 10, "Kelly": 11, "Navy": 12, "Red": 13, "Royal": 14,
	},
}

// ImageSlot looks up the mockup number for a base type and color.
func ImageSlot(baseType, color string) (int, bool) {
	slot, ok := imageSlots[baseType][color]
	return slot, ok
}

// ResolveImage returns the URL for (baseType, color) from links. A missing
// pair or an unresolved slot yields ("", false).
func ResolveImage(links map[int]string, baseType, color string) (string, bool) {
	slot, ok := ImageSlot(baseType, color)
	if !ok {
		return "", false
	}
	url := links[slot]
	return url, url != ""
}
