// Package gitpath contains consts and methods to work with paths inside
// the .git directory
package gitpath

import "path"

// .git/ Files and directories
// Refs paths are kept in unix format since this is how they are stored;
// the backend is in charge of converting them to the current system
// when needed
const (
	DotGitPath      = ".git"
	ConfigPath      = "config"
	DescriptionPath = "description"
	IndexPath       = "index"
	HEADPath        = "HEAD"
	ObjectsPath     = "objects"
	ObjectsInfoPath = ObjectsPath + "/info"
	ObjectsPackPath = ObjectsPath + "/pack"
	RefsPath        = "refs"
	RefsTagsPath    = RefsPath + "/tags"
	RefsHeadsPath   = RefsPath + "/heads"

	// GitignorePath is the name of the ignore file at the root of the
	// working tree
	GitignorePath = ".gitignore"
)

// Ref returns the full UNIX path of a ref from its short name
// ex. for `heads/master` returns `refs/heads/master`
func Ref(shortName string) string {
	return path.Join(RefsPath, shortName)
}

// LocalBranch returns the full name of a branch
// ex. for `master` returns `refs/heads/master`
func LocalBranch(shortName string) string {
	return path.Join(RefsHeadsPath, shortName)
}

// LocalBranchShortName returns the short name of a branch
// ex. for `refs/heads/master` returns `master`
func LocalBranchShortName(fullName string) string {
	if len(fullName) > len(RefsHeadsPath)+1 && fullName[:len(RefsHeadsPath)+1] == RefsHeadsPath+"/" {
		return fullName[len(RefsHeadsPath)+1:]
	}
	return fullName
}

// LocalTag returns the full name of a tag
// ex. for `v1.0.0` returns `refs/tags/v1.0.0`
func LocalTag(shortName string) string {
	return path.Join(RefsTagsPath, shortName)
}
