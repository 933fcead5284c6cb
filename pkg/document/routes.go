package document

func (d *Document) routes() map[string]handler {
	return map[string]handler{
		"create_object":             d.createObject,
		"create_objects":            d.createObjects,
		"get_document_info":         d.documentInfo,
		"get_object_info":           d.objectInfo,
		"get_objects_info":          d.objectsInfo,
		"get_selected_objects_info": d.selectedObjectsInfo,
		"modify_object":             d.modifyObject,
		"modify_objects":            d.modifyObjects,
		"rotate_object":             d.rotateObject,
		"rotate_objects":            d.rotateObjects,
		"copy_object":               d.copyObject,
		"copy_objects":              d.copyObjects,
		"delete_objects":            d.deleteObjects,
		"rebase_object_pose":        d.rebaseObject,
		"rebase_objects_pose":       d.rebaseObjects,
		"reset_object_pose":         d.resetObject,
		"reset_objects_pose":        d.resetObjects,
		"get_connectivity_graph":    d.connectivityGraph,
		"get_or_set_current_layer":  d.currentLayer,
		"delete_layer":              d.deleteLayer,
		"select_objects":            d.selectObjects,
		"open_file":                 d.unsupported("open_file"),
		"close_file":                d.unsupported("close_file"),
		"save_file":                 d.unsupported("save_file"),
	}
}
