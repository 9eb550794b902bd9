// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package namegen

// Starts and Ends are combined into two-part semantic names
// ("emberbrook", "frostvale"). Combinations where the start's last character
// equals the end's first character are rejected and fall back to Singles.
var Starts = []string{
	"amber", "arc", "ash", "aster", "aurora", "birch", "bloom", "blush",
	"breeze", "cinder", "cloud", "coral", "crest", "dawn", "drift", "dusk",
	"echo", "ember", "fable", "fern", "flare", "flint", "frost", "gale",
	"glade", "gleam", "glow", "grove", "halo", "haze", "iris", "ivory",
	"jade", "lark", "lumen", "lunar", "marsh", "meadow", "mist", "moss",
	"night", "nimbus", "ochre", "onyx", "opal", "pearl", "petal", "pine",
	"quartz", "raven", "reef", "ridge", "river", "sage", "shade",
}

var Ends = []string{
	"bank", "beam", "bell", "bend", "berry", "bird", "brook", "burn",
	"call", "chant", "charm", "coast", "crown", "dale", "dance", "dew",
	"down", "dream", "dust", "fall", "field", "fire", "flame", "flow",
	"gate", "glen", "hart", "haven", "hill", "hollow", "horn", "lake",
	"leaf", "light", "mark", "mere", "peak", "rain", "shine", "song",
	"spark", "stone", "tide", "vale", "wind",
}

// Singles is the curated single-word fallback vocabulary.
var Singles = []string{
	"alabaster", "basalt", "cascade", "celadon", "chroma", "citrine",
	"cobalt", "crimson", "damson", "ebony", "eclipse", "emberline",
	"fathom", "feldspar", "fjord", "gossamer", "granite", "harbor",
	"heather", "helios", "horizon", "incense", "indigo", "juniper",
	"kelp", "lagoon", "lantern", "lattice", "lichen", "limestone",
	"mahogany", "mangrove", "marble", "meridian", "mica", "mirage",
	"monsoon", "moonstone", "nectar", "nocturne", "obsidian", "orchid",
	"paprika", "parchment", "peridot", "pewter", "pigment", "prairie",
	"prism", "pumice", "quarry", "quicksilver", "resin", "russet",
	"saffron", "sandbar", "sepia", "sierra", "silt", "solstice",
	"sorrel", "spruce", "starling", "sumac", "tamarind", "tempest",
	"terracotta", "thistle", "tundra", "umber", "velvet", "verdigris",
	"vesper", "willow", "zephyr",
}

// ColorFamilies maps each RGB hint family to its vocabulary words, tried in
// order by RGBToSemanticColorName until an unused one is found.
var ColorFamilies = map[string][]string{
	"shadow":   {"charcoal", "soot", "umbra", "pitch", "gloam"},
	"graphite": {"graphite", "gunmetal", "anthracite", "smokestone", "ashen"},
	"slate":    {"slate", "bluestone", "shingle", "flagstone", "greystone"},
	"mist":     {"mistral", "fogbank", "vapor", "chalk", "linen"},
	"ember":    {"emberglow", "coalfire", "hearth", "kindling", "brazier"},
	"sunset":   {"sundown", "apricot", "melon", "dusken", "amberlight"},
	"rust":     {"rustline", "oxide", "copperton", "cinnabar", "brickstone"},
	"moss":     {"mossbank", "fernshade", "clover", "sward", "verdant"},
	"forest":   {"pinewood", "evergreen", "canopy", "thicket", "deepwood"},
	"olive":    {"olivine", "khaki", "drabstone", "laurel", "fennel"},
	"teal":     {"petrol", "seafoam", "aquamarine", "turquoise", "cerulean"},
	"violet":   {"amethyst", "lilac", "mauve", "periwinkle", "heliotrope"},
	"ocean":    {"abyssal", "brine", "marine", "ultramarine", "deepsea"},
	"midnight": {"nightfall", "starless", "eventide", "duskfall", "moonless"},
	"neutral":  {"taupe", "greige", "oatmeal", "bonewhite", "putty"},
}

// familyOrder keeps family word lookup deterministic across runs.
var familyOrder = []string{
	"shadow", "graphite", "slate", "mist", "ember", "sunset", "rust",
	"moss", "forest", "olive", "teal", "violet", "ocean", "midnight",
	"neutral",
}

// syllables feed the invented-word fallback when every family word is used.
var syllables = []string{
	"va", "lor", "mi", "ra", "sen", "ti", "no", "qua",
	"ze", "phi", "dre", "ol", "ka", "lu", "mar", "ven",
}
