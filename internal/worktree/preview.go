package worktree

import (
	"strings"

	diffmatchpatch "github.com/sergi/go-diff/diffmatchpatch"

	"autotundra/internal/domain"
	sharederrors "autotundra/internal/shared/errors"
)

// MergePreview summarizes what MergeToMain would do against wt's branch,
// without touching the working tree or committing anything.
type MergePreview struct {
	WouldConflict  bool
	NothingToMerge bool
	Files          []string
	Diffs          map[string]string // per changed file: full text with ANSI-coloured insertions/deletions
}

// PreviewMerge renders the merge the way MergeToMain would perform it,
// read-only: it compares each changed file's blob on BaseBranch against
// wt.Branch with a line-level diff (sergi/go-diff), rather than shelling
// out to git's own diff formatter, so the rendered preview matches exactly
// what the server returns over the wire.
func (m *Manager) PreviewMerge(wt *domain.WorktreeInfo) (*MergePreview, error) {
	nameDiff, err := m.git.RunGit(m.baseDir, []string{"diff", "--name-only", wt.BaseBranch, wt.Branch})
	if err != nil {
		return nil, sharederrors.NewWorktreeError(sharederrors.WorktreeGitCommand, err, "git diff --name-only failed")
	}
	files := splitNonEmptyLines(nameDiff.Stdout)
	if len(files) == 0 {
		return &MergePreview{NothingToMerge: true}, nil
	}

	dmp := diffmatchpatch.New()
	diffs := make(map[string]string, len(files))
	for _, f := range files {
		oldContent := m.showBlob(wt.BaseBranch, f)
		newContent := m.showBlob(wt.Branch, f)
		d := dmp.DiffMain(oldContent, newContent, false)
		dmp.DiffCleanupSemantic(d)
		diffs[f] = dmp.DiffPrettyText(d)
	}

	mergeBaseDiff, _ := m.git.RunGit(m.baseDir, []string{"merge-tree", wt.BaseBranch, wt.Branch})
	conflict := strings.Contains(mergeBaseDiff.Stdout, "<<<<<<<")

	return &MergePreview{WouldConflict: conflict, Files: files, Diffs: diffs}, nil
}

// showBlob returns path's content at ref, or "" if the path doesn't exist
// there (a newly-added or newly-deleted file).
func (m *Manager) showBlob(ref, path string) string {
	res, err := m.git.RunGit(m.baseDir, []string{"show", ref + ":" + path})
	if err != nil || !res.Success {
		return ""
	}
	return res.Stdout
}
