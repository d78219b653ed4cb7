package cli

// Options holds every subclip flag. subclip has no subcommands: the mode is
// picked by --reload, --update, --query and --stats.
type Options struct {
	Reload bool   `long:"reload" description:"Destroy and rebuild the index from directory"`
	Update bool   `long:"update" description:"Incrementally rescan directory"`
	Query  string `short:"q" long:"query" description:"Search the index for TEXT and write clip files" value-name:"TEXT"`
	Before int    `long:"before" description:"Context cues before each match" default:"1" value-name:"N"`
	After  int    `long:"after" description:"Context cues after each match" default:"1" value-name:"N"`

	OutputDir string `long:"output-dir" description:"Directory for clip files (default: config output.dir, else the system temp dir)" value-name:"DIR"`
	Name      string `long:"name" description:"Base name for clip files (default: query plus a unique suffix)"`
	Strict    bool   `long:"strict" description:"Reject a subtitle file with any unreadable timestamp"`

	Stats   bool   `long:"stats" description:"Show index statistics"`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Config  string `long:"config" description:"Path to config file (default ~/.config/subclip/config.yaml)" value-name:"PATH"`
	DB      string `long:"db" description:"Path to the index database (overrides config)" value-name:"PATH"`
	Verbose bool   `short:"v" long:"verbose" description:"Enable debug logging"`
	Version bool   `long:"version" description:"Show version and exit"`

	Args struct {
		Directory string `positional-arg-name:"directory" description:"Media library to index"`
	} `positional-args:"yes"`
}

func (o *Options) indexing() bool {
	return o.Reload || o.Update
}
