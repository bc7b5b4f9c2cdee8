package knowledge

// Term is one entry of the slang dictionary
type Term struct {
	Term       string
	Definition string
	Example    string
	Tags       []string
}

// SlangDatabase is the built-in slang dictionary, sourced from
// shonaslang.com. Loaded once, never mutated.
var SlangDatabase = []Term{
	{
		Term:       "Bho / Bho zvekuti",
		Definition: "Good, fine, excellent. The most common response to 'Ndeipi'.",
		Example:    "Zviri kufamba bho here? (Is everything going well?)",
		Tags:       []string{"Common", "Greeting"},
	},
	{
		Term:       "Ndeipi",
		Definition: "What's up? / How are you? The standard slang greeting.",
		Example:    "Ndeipi wangu? (What's up my friend?)",
		Tags:       []string{"Greeting"},
	},
	{
		Term:       "Mbinga",
		Definition: "A very rich person. Someone who flashes money.",
		Example:    "Uyo imbinga, anofamba neG-Wagon. (That guy is rich, he drives a G-Wagon.)",
		Tags:       []string{"Money", "Status"},
	},
	{
		Term:       "Wangu",
		Definition: "My friend / My guy. Literally means 'Mine'.",
		Example:    "Taura wangu. (Speak, my friend.)",
		Tags:       []string{"People"},
	},
	{
		Term:       "Mudhara / Mdara",
		Definition: "Literally 'Old man', but used respectfully for any male friend.",
		Example:    "Mdara, ndeipi? (Big man, what's up?)",
		Tags:       []string{"People", "Respect"},
	},
	{
		Term:       "Ghetto Yut",
		Definition: "A young person from the high-density suburbs (Ghetto).",
		Example:    "MaGhetto Yut arikushanda nesimba. (The ghetto youths are working hard.)",
		Tags:       []string{"People"},
	},
	{
		Term:       "Salad",
		Definition: "Someone from the wealthy low-density suburbs (Borrowdale, etc). Usually speaks English more than Shona.",
		Example:    "Uyo isalad, haanzwisise slang. (That one is a 'salad', they don't understand slang.)",
		Tags:       []string{"People", "Stereotype"},
	},
	{
		Term:       "Kupisa",
		Definition: "Literally 'To burn', but means to be hot, trending, or very good.",
		Example:    "Ngoma iyi irikupisa! (This song is hot!)",
		Tags:       []string{"Vibe"},
	},
	{
		Term:       "Dhololo",
		Definition: "Nothing, zero, failure.",
		Example:    "Ndakaenda kubasa asi ndakawana dhololo. (I went to work but got nothing.)",
		Tags:       []string{"Exclamation"},
	},
	{
		Term:       "Zhet",
		Definition: "Okay, inside, deep. Often means 'It is well' or 'I am in'.",
		Example:    "Zviri zhet. (It is okay.)",
		Tags:       []string{"Common"},
	},
	{
		Term:       "Chigunduru",
		Definition: "A homeless person or someone who sleeps rough.",
		Example:    "Usarare panze sechigunduru. (Don't sleep outside like a homeless person.)",
		Tags:       []string{"Insult/Descriptive"},
	},
	{
		Term:       "Kuseta",
		Definition: "To hustle / To work hard.",
		Example:    "Tirikuda kuseta mari. (We want to hustle for money.)",
		Tags:       []string{"Work"},
	},
	{
		Term:       "Mushe",
		Definition: "Nice, good, well.",
		Example:    "Zviri mushe. (It is nice.)",
		Tags:       []string{"Common"},
	},
	{
		Term:       "Ka1",
		Definition: "Once / Simple / One time.",
		Example:    "Baya ka1. (Go once/Leave immediately.)",
		Tags:       []string{"Command"},
	},
	{
		Term:       "Dhiri",
		Definition: "A deal, a plan, or an arrangement.",
		Example:    "Pane dhiri riripo here? (Is there a deal available?)",
		Tags:       []string{"Business"},
	},
	{
		Term:       "Hwahwa",
		Definition: "Beer / Alcohol.",
		Example:    "Tirikunwa hwahwa. (We are drinking beer.)",
		Tags:       []string{"Party"},
	},
	{
		Term:       "Mutsigo",
		Definition: "A load, burden, or luggage. Can refer to a problem.",
		Example:    "Ndine mutsigo wemari. (I have a burden/issue of money.)",
		Tags:       []string{"Nouns"},
	},
	{
		Term:       "Gaza",
		Definition: "To eat / food.",
		Example:    "Handei tonogaza. (Let's go eat.)",
		Tags:       []string{"Action"},
	},
}
