package script

// commands maps every headless command name to its implementation (spec
// §4.M's command table). Grounded on cli/headless.py's COMMANDS dispatch
// dict, extended with the commands spec.md's superset adds.
var commands = map[string]commandFunc{
	"new_project":         cmdNewProject,
	"template_house":      cmdTemplateHouse,
	"template_lofi":       cmdTemplateLofi,
	"template_hiphop":     cmdTemplateHipHop,
	"render_demo":         cmdRenderDemo,
	"open_project":        cmdOpenProject,
	"save_project":        cmdSaveProject,
	"add_track":           cmdAddTrack,
	"delete_track":        cmdDeleteTrack,
	"set_program":         cmdSetProgram,
	"set_volume":          cmdSetVolume,
	"set_pan":             cmdSetPan,
	"set_reverb":          cmdSetReverb,
	"set_chorus":          cmdSetChorus,
	"set_glide":           cmdSetGlide,
	"set_sampler":         cmdSetSampler,
	"set_humanize":        cmdSetHumanize,
	"set_swing":           cmdSetSwing,
	"set_loop":            cmdSetLoop,
	"clear_loop":          cmdClearLoop,
	"set_render_region":   cmdSetRenderRegion,
	"clear_render_region": cmdClearRenderRegion,
	"insert_note":         cmdInsertNote,
	"validate_project":    cmdValidateProject,
	"diff_projects":       cmdDiffProjects,
	"dump_state":          cmdDumpState,

	"new_pattern":       cmdNewPattern,
	"rename_pattern":    cmdRenamePattern,
	"delete_pattern":    cmdDeletePattern,
	"duplicate_pattern": cmdDuplicatePattern,
	"pattern_transpose": cmdPatternTranspose,
	"pattern_shift":     cmdPatternShift,
	"pattern_stretch":   cmdPatternStretch,
	"pattern_reverse":   cmdPatternReverse,
	"pattern_vel":       cmdPatternVel,
	"add_note_pat":      cmdAddNotePat,
	"place_pattern":     cmdPlacePattern,
	"move_clip":         cmdMoveClip,
	"delete_clip":       cmdDeleteClip,
	"copy_bars":         cmdCopyBars,
	"clear_clips":       cmdClearClips,
	"add_section":       cmdAddSection,
	"add_variation":     cmdAddVariation,
	"quantize_track":    cmdQuantizeTrack,
	"select_notes":      cmdSelectNotes,
	"apply_selected":    cmdApplySelected,

	"gen_drums":       cmdGenDrums,
	"gen_drum_macros": cmdGenDrumMacros,
	"gen_bass_follow": cmdGenBassFollow,
	"eq":              cmdEQ,
	"sidechain":       cmdSidechain,
	"transient":       cmdTransient,

	"export_midi":          cmdExportMIDI,
	"export_wav":           cmdExportWAV,
	"export_mp3":           cmdExportMP3,
	"export_m4a":           cmdExportM4A,
	"export_preview_mp3":   cmdExportPreviewMP3,
	"export_stems":         cmdExportStems,
	"export_busses":        cmdExportBusses,
	"export_package":       cmdExportPackage,
	"spectrogram_audio":    cmdSpectrogram,
	"export_spectrogram":   cmdExportSpectrogram,
	"analyze_refs":         cmdAnalyzeRefs,
	"meter_audio":          cmdMeterAudio,
	"analyze_audio":        cmdAnalyzeAudio,
	"run_quality_workflow": cmdRunQualityWorkflow,
}
